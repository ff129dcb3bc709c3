package detector

import "github.com/ayusman/poseguard/internal/pose"

// jsonLandmark is one entry of the pose service response. Coordinates are
// normalized to [0,1] relative to the frame, as MediaPipe reports them.
type jsonLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// toLandmarks converts normalized service output to pixel landmarks.
// The slice index is the MediaPipe landmark index.
func toLandmarks(points []jsonLandmark, width, height int) []pose.Landmark {
	n := len(points)
	if n > pose.NumLandmarks {
		n = pose.NumLandmarks
	}

	result := make([]pose.Landmark, 0, n)
	for i := 0; i < n; i++ {
		p := points[i]
		result = append(result, pose.Landmark{
			Type: pose.LandmarkType(i),
			Position: pose.Point{
				X: p.X * float64(width),
				Y: p.Y * float64(height),
			},
			Likelihood: clamp01(p.Visibility),
		})
	}
	return result
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
