// Package testdata provides synthetic camera frames for pipeline tests.
package testdata

import (
	"gocv.io/x/gocv"
)

// Frame sizes matching a typical webcam.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// SolidFrame returns a width x height BGR frame filled with one gray level.
func SolidFrame(width, height int, gray float64) *gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(gray, gray, gray, 0), height, width, gocv.MatTypeCV8UC3)
	return &mat
}

// Sequence returns n webcam-sized frames of increasing brightness, so
// consecutive frames differ.
func Sequence(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = SolidFrame(FrameWidth, FrameHeight, float64(20+(i*10)%200))
	}
	return frames
}

// CloseAll frees every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
