// Package overlay renders camera previews with the tracked landmarks drawn on top.
package overlay

import (
	"errors"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/pose"
)

// Drawing parameters.
const (
	PointRadius = 15
	LineWidth   = 5
)

// ErrCanvasSize is returned by Render for a viewport that is not ready or
// exceeds analyzer.MaxViewportSide.
var ErrCanvasSize = errors.New("viewport size cannot be rendered")

var (
	wristColor    = color.RGBA{R: 255, A: 255}
	shoulderColor = color.RGBA{B: 255, A: 255}
	headColor     = color.RGBA{G: 255, A: 255}
	torsoColor    = color.RGBA{R: 255, B: 255, A: 255}
	armColor      = color.RGBA{R: 255, G: 255, A: 255}
)

// Compose returns a viewport-sized canvas with frame fitted inside it using
// the same aspect-fit transform as analyzer.MapToView, mirrored for front
// cameras. A viewport that is not ready or does not fit yields an empty
// Mat. The caller must Close the result.
func Compose(frame gocv.Mat, vp analyzer.Viewport) gocv.Mat {
	if !vp.Ready() || !vp.Fits() {
		return gocv.NewMat()
	}
	width, height := int(vp.Width), int(vp.Height)
	canvas := gocv.NewMatWithSize(height, width, frame.Type())
	if frame.Empty() {
		return canvas
	}
	canvas.SetTo(gocv.NewScalar(0, 0, 0, 0))

	scale := math.Min(vp.Width/float64(frame.Cols()), vp.Height/float64(frame.Rows()))
	sw := clamp(int(math.Round(float64(frame.Cols())*scale)), 1, width)
	sh := clamp(int(math.Round(float64(frame.Rows())*scale)), 1, height)
	offX := (width - sw) / 2
	offY := (height - sh) / 2

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(frame, &resized, image.Pt(sw, sh), 0, 0, gocv.InterpolationLinear)

	if vp.FrontCamera {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(resized, &flipped, 1)
		resized, flipped = flipped, resized
	}

	region := canvas.Region(image.Rect(offX, offY, offX+sw, offY+sh))
	defer region.Close()
	resized.CopyTo(&region)

	return canvas
}

// Draw paints the snapshot onto img: red wrists, blue shoulders, a green
// head, a magenta line across the shoulders and yellow shoulder-to-wrist lines.
func Draw(img *gocv.Mat, s pose.Snapshot) {
	line := func(a, b *pose.Point, c color.RGBA) {
		if a != nil && b != nil {
			gocv.Line(img, toImage(a), toImage(b), c, LineWidth)
		}
	}
	line(s.LeftShoulder, s.RightShoulder, torsoColor)
	line(s.LeftShoulder, s.LeftWrist, armColor)
	line(s.RightShoulder, s.RightWrist, armColor)

	dot := func(p *pose.Point, c color.RGBA) {
		if p != nil {
			gocv.Circle(img, toImage(p), PointRadius, c, -1)
		}
	}
	dot(s.LeftWrist, wristColor)
	dot(s.RightWrist, wristColor)
	dot(s.LeftShoulder, shoulderColor)
	dot(s.RightShoulder, shoulderColor)
	dot(s.Head, headColor)
}

// Render composes frame into the viewport, draws the snapshot and encodes
// the result as JPEG.
func Render(frame gocv.Mat, vp analyzer.Viewport, s pose.Snapshot) ([]byte, error) {
	if !vp.Ready() || !vp.Fits() {
		return nil, ErrCanvasSize
	}
	canvas := Compose(frame, vp)
	defer canvas.Close()

	Draw(&canvas, s)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, canvas)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func toImage(p *pose.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
