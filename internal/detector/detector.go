// Package detector provides pose detection interfaces and implementations.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/pose"
)

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes an upright frame and returns the landmarks found, in
	// frame pixel coordinates. Returns an empty slice if no body is found.
	Detect(frame *gocv.Mat) ([]pose.Landmark, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// StreamMode tells the detector that frames are consecutive video
	// frames, enabling landmark tracking between them.
	StreamMode bool

	// ModelComplexity selects the pose model (0 lite, 1 full, 2 heavy).
	ModelComplexity int

	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		StreamMode:       true,
		ModelComplexity:  1,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}
