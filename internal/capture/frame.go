package capture

import (
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// Frame is a captured camera image plus the metadata the analyzer needs.
// The underlying Mat is owned by the frame and freed by Release, which is
// safe to call from any goroutine and any number of times.
type Frame struct {
	Mat       *gocv.Mat
	Rotation  int // clockwise degrees needed to make the image upright
	Width     int
	Height    int
	Seq       uint64
	Timestamp int64

	released  atomic.Bool
	onRelease func(*Frame)
}

// NewFrame wraps mat in a Frame. Width and height are taken from the Mat.
func NewFrame(mat *gocv.Mat, rotation int) *Frame {
	f := &Frame{
		Mat:       mat,
		Rotation:  normalizeRotation(rotation),
		Timestamp: time.Now().UnixMilli(),
	}
	if mat != nil && !mat.Empty() {
		f.Width = mat.Cols()
		f.Height = mat.Rows()
	}
	return f
}

// OnRelease registers fn to run once when the frame is released.
// It must be set before the frame is handed to another goroutine.
func (f *Frame) OnRelease(fn func(*Frame)) {
	f.onRelease = fn
}

// Empty reports whether the frame carries no image payload.
func (f *Frame) Empty() bool {
	return f == nil || f.Mat == nil || f.Mat.Empty()
}

// UprightSize returns the frame dimensions after applying Rotation.
func (f *Frame) UprightSize() (width, height int) {
	if f.Rotation == 90 || f.Rotation == 270 {
		return f.Height, f.Width
	}
	return f.Width, f.Height
}

// RotateFlag returns the gocv rotation that makes the frame upright. ok is
// false when the frame is already upright.
func (f *Frame) RotateFlag() (code gocv.RotateFlag, ok bool) {
	switch f.Rotation {
	case 90:
		return gocv.Rotate90Clockwise, true
	case 180:
		return gocv.Rotate180Clockwise, true
	case 270:
		return gocv.Rotate90CounterClockwise, true
	}
	return 0, false
}

// UprightCopy returns a new upright Mat that the caller must Close.
func (f *Frame) UprightCopy() gocv.Mat {
	code, ok := f.RotateFlag()
	if !ok {
		return f.Mat.Clone()
	}
	dst := gocv.NewMat()
	gocv.Rotate(*f.Mat, &dst, code)
	return dst
}

// Release frees the frame's Mat. Only the first call has any effect;
// it reports whether this call performed the release.
func (f *Frame) Release() bool {
	if f == nil || !f.released.CompareAndSwap(false, true) {
		return false
	}
	if f.Mat != nil {
		f.Mat.Close()
	}
	if f.onRelease != nil {
		f.onRelease(f)
	}
	return true
}

// Released reports whether Release has been called.
func (f *Frame) Released() bool {
	return f.released.Load()
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
