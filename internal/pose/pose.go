// Package pose defines the body landmark types shared by the detector,
// the frame analyzer and the gesture tracker.
package pose

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose          LandmarkType = 0
	LeftShoulder  LandmarkType = 11
	RightShoulder LandmarkType = 12
	LeftWrist     LandmarkType = 15
	RightWrist    LandmarkType = 16
	NumLandmarks               = 33
)

// LandmarkType identifies an anatomical point reported by pose inference.
type LandmarkType int

// String returns the landmark name used in logs and JSON payloads.
func (t LandmarkType) String() string {
	switch t {
	case Nose:
		return "nose"
	case LeftShoulder:
		return "left_shoulder"
	case RightShoulder:
		return "right_shoulder"
	case LeftWrist:
		return "left_wrist"
	case RightWrist:
		return "right_wrist"
	default:
		return "other"
	}
}

// Point is a 2D position. Image points are in upright frame pixels,
// view points are in display pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark is a single detector result: a labeled position plus the
// likelihood that the point is inside the frame.
type Landmark struct {
	Type       LandmarkType `json:"type"`
	Position   Point        `json:"position"`
	Likelihood float64      `json:"likelihood"`
}

// Find returns the first landmark of the given type.
func Find(landmarks []Landmark, t LandmarkType) (Landmark, bool) {
	for _, l := range landmarks {
		if l.Type == t {
			return l, true
		}
	}
	return Landmark{}, false
}

// Snapshot is the set of tracked points for a single frame in view space.
// A nil field means the point was missing or below the likelihood threshold.
// Snapshots are values: once published they are never modified.
type Snapshot struct {
	LeftWrist     *Point `json:"left_wrist"`
	RightWrist    *Point `json:"right_wrist"`
	LeftShoulder  *Point `json:"left_shoulder"`
	RightShoulder *Point `json:"right_shoulder"`
	Head          *Point `json:"head"`
}

// HandsAboveHead reports whether both wrists and the head are present and
// both wrists are higher on screen than the head (smaller y).
func (s Snapshot) HandsAboveHead() bool {
	if s.LeftWrist == nil || s.RightWrist == nil || s.Head == nil {
		return false
	}
	return s.LeftWrist.Y < s.Head.Y && s.RightWrist.Y < s.Head.Y
}

// Count returns the number of present points.
func (s Snapshot) Count() int {
	n := 0
	for _, p := range []*Point{s.LeftWrist, s.RightWrist, s.LeftShoulder, s.RightShoulder, s.Head} {
		if p != nil {
			n++
		}
	}
	return n
}
