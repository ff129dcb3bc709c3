package server

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/app"
	"github.com/ayusman/poseguard/internal/gesture"
)

// fakePipeline backs the server with a real tracker and an optional frame.
type fakePipeline struct {
	tracker *gesture.Tracker

	mu       sync.Mutex
	vp       analyzer.Viewport
	frame    *gocv.Mat
	cameraID int
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		tracker: gesture.NewTracker(0),
		vp:      analyzer.Viewport{Width: 1080, Height: 1920, FrontCamera: true},
	}
}

func (p *fakePipeline) State() gesture.State { return p.tracker.State() }
func (p *fakePipeline) Required() int        { return p.tracker.Required() }
func (p *fakePipeline) Reset()               { p.tracker.Reset() }
func (p *fakePipeline) Stats() app.Stats     { return app.Stats{Confirmations: 7} }

func (p *fakePipeline) CameraDevice() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cameraID
}

func (p *fakePipeline) SetCameraDevice(id int) error {
	if id == 99 {
		return errors.New("no such device")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cameraID = id
	return nil
}

func (p *fakePipeline) Viewport() analyzer.Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vp
}

func (p *fakePipeline) SetViewport(vp analyzer.Viewport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vp = vp
	return nil
}

func (p *fakePipeline) LatestFrame() (gocv.Mat, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frame == nil {
		return gocv.NewMat(), false
	}
	return p.frame.Clone(), true
}
