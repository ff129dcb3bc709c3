package analyzer

import (
	"math"

	"github.com/ayusman/poseguard/internal/pose"
)

// Viewport is the display area the overlay is drawn on, as reported by the
// view layer. A zero width or height means it has not been laid out yet.
type Viewport struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FrontCamera bool    `json:"front_camera"`
}

// MaxViewportSide bounds each viewport dimension. The overlay allocates a
// canvas of the viewport size.
const MaxViewportSide = 8192

// Ready reports whether the viewport has a usable size: at least one whole
// pixel in each dimension.
func (v Viewport) Ready() bool {
	return v.Width >= 1 && v.Height >= 1
}

// Fits reports whether both dimensions are within MaxViewportSide.
func (v Viewport) Fits() bool {
	return v.Width <= MaxViewportSide && v.Height <= MaxViewportSide
}

// Size is an image size in pixels.
type Size struct {
	Width  float64
	Height float64
}

// MapToView converts an upright image point to viewport coordinates.
//
// The image is fitted inside the viewport with a uniform scale and centered
// on both axes. Front camera previews are mirrored horizontally within the
// scaled image before centering; the vertical axis is never mirrored.
func MapToView(p pose.Point, image Size, vp Viewport) pose.Point {
	scale := math.Min(vp.Width/image.Width, vp.Height/image.Height)

	scaledWidth := image.Width * scale
	scaledHeight := image.Height * scale
	offsetX := (vp.Width - scaledWidth) / 2
	offsetY := (vp.Height - scaledHeight) / 2

	x := p.X * scale
	if vp.FrontCamera {
		x = scaledWidth - x
	}

	return pose.Point{
		X: x + offsetX,
		Y: p.Y*scale + offsetY,
	}
}

// BuildSnapshot selects the five tracked landmarks, drops those below
// minLikelihood and maps the rest into the viewport.
func BuildSnapshot(landmarks []pose.Landmark, image Size, vp Viewport, minLikelihood float64) pose.Snapshot {
	pick := func(t pose.LandmarkType) *pose.Point {
		l, ok := pose.Find(landmarks, t)
		if !ok || l.Likelihood < minLikelihood {
			return nil
		}
		p := MapToView(l.Position, image, vp)
		return &p
	}

	return pose.Snapshot{
		LeftWrist:     pick(pose.LeftWrist),
		RightWrist:    pick(pose.RightWrist),
		LeftShoulder:  pick(pose.LeftShoulder),
		RightShoulder: pick(pose.RightShoulder),
		Head:          pick(pose.Nose),
	}
}
