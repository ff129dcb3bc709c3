package analyzer

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/capture"
	"github.com/ayusman/poseguard/internal/detector"
	"github.com/ayusman/poseguard/internal/monitoring"
	"github.com/ayusman/poseguard/internal/pose"
)

var portrait = Viewport{Width: 1080, Height: 1920, FrontCamera: true}

type recordingSink struct {
	mu        sync.Mutex
	snapshots []pose.Snapshot
}

func (s *recordingSink) Publish(snapshot pose.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

func newFrame(t *testing.T, seq uint64, releases *atomic.Int32) *capture.Frame {
	t.Helper()
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	frame := capture.NewFrame(&mat, 0)
	frame.Seq = seq
	frame.OnRelease(func(*capture.Frame) { releases.Add(1) })
	return frame
}

func await(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("analysis did not complete")
		return Result{}
	}
}

func TestAnalyze_RejectsViewportNotReady(t *testing.T) {
	viewports := []Viewport{
		{Width: 0, Height: 1920},
		{Width: 1080, Height: 0},
		{Width: -5, Height: -5},
	}

	for _, vp := range viewports {
		mock := detector.NewMockDetector()
		sink := &recordingSink{}
		a := New(mock, sink)

		var releases atomic.Int32
		res := await(t, a.Analyze(newFrame(t, 1, &releases), vp))

		if !errors.Is(res.Err, ErrViewportNotReady) {
			t.Errorf("%+v: Err = %v, want ErrViewportNotReady", vp, res.Err)
		}
		if mock.Calls() != 0 {
			t.Errorf("%+v: detector invoked %d times, want 0", vp, mock.Calls())
		}
		if releases.Load() != 1 {
			t.Errorf("%+v: frame released %d times, want 1", vp, releases.Load())
		}
		if sink.count() != 0 {
			t.Errorf("%+v: sink received %d snapshots, want 0", vp, sink.count())
		}
	}
}

func TestAnalyze_RejectsEmptyFrame(t *testing.T) {
	mock := detector.NewMockDetector()
	a := New(mock, &recordingSink{})

	var releases atomic.Int32
	frame := capture.NewFrame(nil, 0)
	frame.OnRelease(func(*capture.Frame) { releases.Add(1) })

	res := await(t, a.Analyze(frame, portrait))

	if !errors.Is(res.Err, ErrEmptyFrame) {
		t.Errorf("Err = %v, want ErrEmptyFrame", res.Err)
	}
	if mock.Calls() != 0 {
		t.Errorf("detector invoked %d times, want 0", mock.Calls())
	}
	if releases.Load() != 1 {
		t.Errorf("frame released %d times, want 1", releases.Load())
	}
	if got := a.Stats().Rejected; got != 1 {
		t.Errorf("Stats().Rejected = %d, want 1", got)
	}
}

func TestAnalyze_PublishesSnapshot(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetLandmarks([]pose.Landmark{
		{Type: pose.Nose, Position: pose.Point{X: 320, Y: 240}, Likelihood: 0.9},
		{Type: pose.LeftWrist, Position: pose.Point{X: 0, Y: 0}, Likelihood: 0.7},
		{Type: pose.RightWrist, Position: pose.Point{X: 0, Y: 0}, Likelihood: 0.5},
	})
	sink := &recordingSink{}
	a := New(mock, sink)

	var releases atomic.Int32
	res := await(t, a.Analyze(newFrame(t, 9, &releases), portrait))

	if res.Err != nil {
		t.Fatalf("Err = %v", res.Err)
	}
	if res.Seq != 9 {
		t.Errorf("Seq = %d, want 9", res.Seq)
	}

	want := pose.Snapshot{
		Head:      &pose.Point{X: 540, Y: 960},
		LeftWrist: &pose.Point{X: 1080, Y: 555},
	}
	if diff := cmp.Diff(want, res.Snapshot, approx); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	a.Wait()
	if releases.Load() != 1 {
		t.Errorf("frame released %d times, want 1", releases.Load())
	}
	if sink.count() != 1 {
		t.Fatalf("sink received %d snapshots, want 1", sink.count())
	}
	if diff := cmp.Diff(want, sink.snapshots[0], approx); diff != "" {
		t.Errorf("published snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_DetectorFailure(t *testing.T) {
	defer monitoring.SetLogger(log.Printf)
	var logged atomic.Int32
	monitoring.SetLogger(func(string, ...interface{}) { logged.Add(1) })

	boom := errors.New("model crashed")
	mock := detector.NewMockDetector()
	mock.SetError(boom)
	sink := &recordingSink{}
	a := New(mock, sink)

	var releases atomic.Int32
	res := await(t, a.Analyze(newFrame(t, 3, &releases), portrait))
	a.Wait()

	if !errors.Is(res.Err, boom) {
		t.Errorf("Err = %v, want wrapped %v", res.Err, boom)
	}
	if releases.Load() != 1 {
		t.Errorf("frame released %d times, want 1", releases.Load())
	}
	if sink.count() != 0 {
		t.Errorf("sink received %d snapshots after failure, want 0", sink.count())
	}
	if logged.Load() != 1 {
		t.Errorf("logged %d times, want 1", logged.Load())
	}
	if got := a.Stats().Failed; got != 1 {
		t.Errorf("Stats().Failed = %d, want 1", got)
	}
}

func TestAnalyze_UsesUprightSize(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetLandmarks([]pose.Landmark{
		{Type: pose.Nose, Position: pose.Point{X: 240, Y: 320}, Likelihood: 1},
	})
	a := New(mock, nil)

	var releases atomic.Int32
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	frame := capture.NewFrame(&mat, 90)
	frame.OnRelease(func(*capture.Frame) { releases.Add(1) })

	// Upright image is 480x640, the same aspect as the viewport.
	res := await(t, a.Analyze(frame, Viewport{Width: 960, Height: 1280}))
	a.Wait()

	if res.Err != nil {
		t.Fatalf("Err = %v", res.Err)
	}
	want := &pose.Point{X: 480, Y: 640}
	if diff := cmp.Diff(want, res.Snapshot.Head, approx); diff != "" {
		t.Errorf("head mismatch (-want +got):\n%s", diff)
	}
	if releases.Load() != 1 {
		t.Errorf("frame released %d times, want 1", releases.Load())
	}
}

func TestWithMinLikelihood(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{1, 1},
		{0, DefaultMinLikelihood},
		{1.5, DefaultMinLikelihood},
	}

	for _, tt := range tests {
		a := New(nil, nil, WithMinLikelihood(tt.in))
		if got := a.MinLikelihood(); got != tt.want {
			t.Errorf("WithMinLikelihood(%v): MinLikelihood() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRun_AtMostOneInFlight(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetLandmarks(detector.HandsRaisedLandmarks())
	release := mock.Hold()

	sink := &recordingSink{}
	a := New(mock, sink)
	inbox := capture.NewInbox()

	done := make(chan struct{})
	go func() {
		a.Run(inbox, func() Viewport { return portrait })
		close(done)
	}()

	var releases atomic.Int32
	inbox.Publish(newFrame(t, 1, &releases))
	waitFor(t, func() bool { return mock.Calls() == 1 })

	// Frame 2 is replaced by frame 3 while frame 1 is still in inference.
	inbox.Publish(newFrame(t, 2, &releases))
	inbox.Publish(newFrame(t, 3, &releases))

	if mock.Calls() != 1 {
		t.Fatalf("detector invoked %d times while busy, want 1", mock.Calls())
	}
	if releases.Load() != 1 {
		t.Errorf("released %d frames, want only the dropped frame", releases.Load())
	}

	release()
	waitFor(t, func() bool { return sink.count() == 2 })

	inbox.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after inbox closed")
	}

	if mock.Calls() != 2 {
		t.Errorf("detector invoked %d times, want 2", mock.Calls())
	}
	if releases.Load() != 3 {
		t.Errorf("released %d frames, want 3", releases.Load())
	}
	if got := inbox.Stats().Dropped; got != 1 {
		t.Errorf("inbox dropped %d frames, want 1", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
