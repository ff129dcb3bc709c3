package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu        sync.Mutex
	landmarks []pose.Landmark
	err       error
	calls     int
	gate      chan struct{}
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetLandmarks sets the landmarks that will be returned by Detect.
func (m *MockDetector) SetLandmarks(landmarks []pose.Landmark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landmarks = landmarks
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Hold makes Detect block until the returned function is called.
func (m *MockDetector) Hold() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]pose.Landmark, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	landmarks, err := m.landmarks, m.err
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if err != nil {
		return nil, err
	}
	return landmarks, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// HandsRaisedLandmarks returns a standing pose in a 640x480 frame with both
// wrists above the nose. Every tracked point has likelihood 0.95.
func HandsRaisedLandmarks() []pose.Landmark {
	return []pose.Landmark{
		{Type: pose.Nose, Position: pose.Point{X: 320, Y: 200}, Likelihood: 0.95},
		{Type: pose.LeftShoulder, Position: pose.Point{X: 380, Y: 280}, Likelihood: 0.95},
		{Type: pose.RightShoulder, Position: pose.Point{X: 260, Y: 280}, Likelihood: 0.95},
		{Type: pose.LeftWrist, Position: pose.Point{X: 420, Y: 120}, Likelihood: 0.95},
		{Type: pose.RightWrist, Position: pose.Point{X: 220, Y: 110}, Likelihood: 0.95},
	}
}

// HandsDownLandmarks returns a standing pose in a 640x480 frame with both
// wrists at hip height.
func HandsDownLandmarks() []pose.Landmark {
	return []pose.Landmark{
		{Type: pose.Nose, Position: pose.Point{X: 320, Y: 200}, Likelihood: 0.95},
		{Type: pose.LeftShoulder, Position: pose.Point{X: 380, Y: 280}, Likelihood: 0.95},
		{Type: pose.RightShoulder, Position: pose.Point{X: 260, Y: 280}, Likelihood: 0.95},
		{Type: pose.LeftWrist, Position: pose.Point{X: 400, Y: 420}, Likelihood: 0.95},
		{Type: pose.RightWrist, Position: pose.Point{X: 240, Y: 420}, Likelihood: 0.95},
	}
}
