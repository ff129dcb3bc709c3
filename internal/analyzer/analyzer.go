// Package analyzer turns camera frames into view-space landmark snapshots.
package analyzer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/capture"
	"github.com/ayusman/poseguard/internal/detector"
	"github.com/ayusman/poseguard/internal/monitoring"
	"github.com/ayusman/poseguard/internal/pose"
)

// DefaultMinLikelihood is the lowest in-frame likelihood a landmark may have
// and still be placed in a snapshot.
const DefaultMinLikelihood = 0.7

var (
	// ErrViewportNotReady is reported when the viewport has no size yet.
	ErrViewportNotReady = errors.New("viewport not laid out")
	// ErrEmptyFrame is reported when a frame carries no image.
	ErrEmptyFrame = errors.New("frame has no image")
)

// Sink receives every snapshot the analyzer produces.
type Sink interface {
	Publish(snapshot pose.Snapshot)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(pose.Snapshot)

// Publish calls f(snapshot).
func (f SinkFunc) Publish(snapshot pose.Snapshot) { f(snapshot) }

// Result is the outcome of analysing one frame.
type Result struct {
	Seq      uint64
	Snapshot pose.Snapshot
	Err      error
}

// Stats counts analysis outcomes.
type Stats struct {
	Analyzed uint64 `json:"analyzed"`
	Rejected uint64 `json:"rejected"`
	Failed   uint64 `json:"failed"`
}

// Analyzer runs pose detection on frames and publishes the resulting
// snapshots. It never decides gestures itself.
type Analyzer struct {
	detector      detector.Detector
	sink          Sink
	minLikelihood float64

	inflight sync.WaitGroup
	analyzed atomic.Uint64
	rejected atomic.Uint64
	failed   atomic.Uint64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMinLikelihood overrides DefaultMinLikelihood. Values outside (0,1] are ignored.
func WithMinLikelihood(v float64) Option {
	return func(a *Analyzer) {
		if v > 0 && v <= 1 {
			a.minLikelihood = v
		}
	}
}

// New creates an Analyzer that publishes to sink.
func New(d detector.Detector, sink Sink, opts ...Option) *Analyzer {
	a := &Analyzer{
		detector:      d,
		sink:          sink,
		minLikelihood: DefaultMinLikelihood,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MinLikelihood returns the landmark acceptance threshold.
func (a *Analyzer) MinLikelihood() float64 {
	return a.minLikelihood
}

// Analyze starts processing frame and returns a channel that yields exactly
// one Result and is then closed. The analyzer owns the frame from this call
// on and releases it exactly once, whatever the outcome.
func (a *Analyzer) Analyze(frame *capture.Frame, vp Viewport) <-chan Result {
	out := make(chan Result, 1)

	if err := a.check(frame, vp); err != nil {
		var seq uint64
		if frame != nil {
			seq = frame.Seq
		}
		frame.Release()
		a.rejected.Add(1)
		out <- Result{Seq: seq, Err: err}
		close(out)
		return out
	}

	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		defer close(out)

		out <- a.process(frame, vp)
	}()

	return out
}

func (a *Analyzer) check(frame *capture.Frame, vp Viewport) error {
	if !vp.Ready() {
		return ErrViewportNotReady
	}
	if frame.Empty() || frame.Width <= 0 || frame.Height <= 0 {
		return ErrEmptyFrame
	}
	return nil
}

func (a *Analyzer) process(frame *capture.Frame, vp Viewport) Result {
	landmarks, err := a.detect(frame)
	if err != nil {
		a.failed.Add(1)
		monitoring.Logf("analyzer: pose detection failed for frame %d: %v", frame.Seq, err)
		return Result{Seq: frame.Seq, Err: fmt.Errorf("detect frame %d: %w", frame.Seq, err)}
	}

	w, h := frame.UprightSize()
	snapshot := BuildSnapshot(landmarks, Size{Width: float64(w), Height: float64(h)}, vp, a.minLikelihood)
	if a.sink != nil {
		a.sink.Publish(snapshot)
	}
	a.analyzed.Add(1)

	return Result{Seq: frame.Seq, Snapshot: snapshot}
}

// detect runs inference on the upright image. This is the only release
// site for an accepted frame; it runs before the Result is delivered.
func (a *Analyzer) detect(frame *capture.Frame) ([]pose.Landmark, error) {
	defer frame.Release()

	mat, cleanup := upright(frame)
	defer cleanup()
	return a.detector.Detect(mat)
}

// upright returns the frame image rotated by frame.Rotation and a function
// that frees any intermediate Mat.
func upright(frame *capture.Frame) (*gocv.Mat, func()) {
	code, ok := frame.RotateFlag()
	if !ok {
		return frame.Mat, func() {}
	}

	dst := gocv.NewMat()
	gocv.Rotate(*frame.Mat, &dst, code)
	return &dst, func() { dst.Close() }
}

// Run consumes frames from inbox one at a time until the inbox is closed,
// waiting for each analysis to finish before taking the next frame. The
// viewport is read fresh for every frame.
func (a *Analyzer) Run(inbox *capture.Inbox, viewport func() Viewport) {
	for {
		frame := inbox.Next()
		if frame == nil {
			return
		}
		<-a.Analyze(frame, viewport())
	}
}

// Wait blocks until every in-flight analysis has completed.
func (a *Analyzer) Wait() {
	a.inflight.Wait()
}

// Stats returns the current counters.
func (a *Analyzer) Stats() Stats {
	return Stats{
		Analyzed: a.analyzed.Load(),
		Rejected: a.rejected.Load(),
		Failed:   a.failed.Load(),
	}
}
