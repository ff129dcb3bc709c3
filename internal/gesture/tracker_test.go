package gesture

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/poseguard/internal/pose"
)

func pt(x, y float64) *pose.Point {
	return &pose.Point{X: x, Y: y}
}

func raised() pose.Snapshot {
	return pose.Snapshot{
		LeftWrist:     pt(700, 300),
		RightWrist:    pt(380, 290),
		LeftShoulder:  pt(660, 900),
		RightShoulder: pt(420, 900),
		Head:          pt(540, 700),
	}
}

func lowered() pose.Snapshot {
	s := raised()
	s.LeftWrist = pt(700, 1300)
	s.RightWrist = pt(380, 1300)
	return s
}

func TestTracker_ConfirmsAfterThreeFrames(t *testing.T) {
	tr := NewTracker(0)

	phases := []Phase{PhaseAccumulating, PhaseAccumulating, PhaseConfirmed}
	for i, want := range phases {
		st := tr.Update(raised())
		if st.Phase() != want {
			t.Fatalf("frame %d: phase = %s, want %s", i+1, st.Phase(), want)
		}
	}

	if !tr.Confirmed() {
		t.Error("Confirmed() = false after 3 qualifying frames")
	}

	select {
	case st := <-tr.Confirmations():
		if st.Count != 3 {
			t.Errorf("confirmation count = %d, want 3", st.Count)
		}
	default:
		t.Fatal("no confirmation delivered")
	}
}

func TestTracker_DisqualifierResetsStreak(t *testing.T) {
	tr := NewTracker(DefaultRequiredFrames)

	tr.Update(raised())
	tr.Update(raised())
	if tr.Confirmed() {
		t.Fatal("confirmed after only 2 frames")
	}

	st := tr.Update(lowered())
	if st.Count != 0 || st.Phase() != PhaseIdle {
		t.Fatalf("after disqualifier: count = %d phase = %s, want 0 idle", st.Count, st.Phase())
	}

	tr.Update(raised())
	if tr.Confirmed() {
		t.Fatal("confirmed on 1st frame of second streak")
	}
	tr.Update(raised())
	if tr.Confirmed() {
		t.Fatal("confirmed on 2nd frame of second streak")
	}
	tr.Update(raised())
	if !tr.Confirmed() {
		t.Fatal("not confirmed on 3rd frame of second streak")
	}
}

func TestTracker_MissingPointResets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pose.Snapshot)
	}{
		{"left wrist missing", func(s *pose.Snapshot) { s.LeftWrist = nil }},
		{"right wrist missing", func(s *pose.Snapshot) { s.RightWrist = nil }},
		{"head missing", func(s *pose.Snapshot) { s.Head = nil }},
		{"one wrist below head", func(s *pose.Snapshot) { s.RightWrist = pt(380, 800) }},
		{"wrist level with head", func(s *pose.Snapshot) { s.LeftWrist = pt(700, 700) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(5)
			for i := 0; i < 4; i++ {
				tr.Update(raised())
			}
			if got := tr.State().Count; got != 4 {
				t.Fatalf("count = %d, want 4", got)
			}

			snap := raised()
			tt.mutate(&snap)
			if got := tr.Update(snap).Count; got != 0 {
				t.Errorf("count = %d after disqualifying frame, want 0", got)
			}
		})
	}
}

func TestTracker_ShouldersAreOptional(t *testing.T) {
	tr := NewTracker(1)
	snap := raised()
	snap.LeftShoulder = nil
	snap.RightShoulder = nil

	if !tr.Update(snap).Confirmed {
		t.Error("shoulders must not be required for the gesture")
	}
}

func TestTracker_ResetRequiresFreshStreak(t *testing.T) {
	tr := NewTracker(DefaultRequiredFrames)
	for i := 0; i < 3; i++ {
		tr.Update(raised())
	}
	<-tr.Confirmations()

	tr.Reset()
	st := tr.State()
	if st.Phase() != PhaseIdle || st.Confirmed || st.Count != 0 {
		t.Fatalf("after Reset: %+v, want idle", st)
	}

	tr.Update(raised())
	tr.Update(raised())
	if tr.Confirmed() {
		t.Fatal("re-confirmed before a full fresh streak")
	}
	tr.Update(raised())
	if !tr.Confirmed() {
		t.Fatal("not re-confirmed after a fresh streak of 3")
	}

	select {
	case <-tr.Confirmations():
	default:
		t.Error("second confirmation not delivered")
	}
}

func TestTracker_ConfirmedIsTerminal(t *testing.T) {
	tr := NewTracker(DefaultRequiredFrames)
	for i := 0; i < 3; i++ {
		tr.Update(raised())
	}

	st := tr.Update(lowered())
	if !st.Confirmed {
		t.Error("a disqualifying frame must not clear a confirmation")
	}
	if diff := cmp.Diff(lowered(), st.Snapshot); diff != "" {
		t.Errorf("snapshot not replaced while confirmed (-want +got):\n%s", diff)
	}

	tr.Update(raised())
	tr.Update(raised())

	// Exactly one confirmation for the whole confirmed period.
	<-tr.Confirmations()
	select {
	case <-tr.Confirmations():
		t.Error("duplicate confirmation while already confirmed")
	default:
	}
}

func TestTracker_ResetDiscardsPendingConfirmation(t *testing.T) {
	tr := NewTracker(1)
	tr.Update(raised())
	tr.Reset()

	select {
	case <-tr.Confirmations():
		t.Error("pending confirmation should be discarded by Reset")
	default:
	}
}

func TestTracker_SnapshotReplacedWholesale(t *testing.T) {
	tr := NewTracker(0)
	tr.Update(raised())

	next := pose.Snapshot{Head: pt(1, 2)}
	tr.Publish(next)

	if diff := cmp.Diff(next, tr.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
	if got := tr.State().Frames; got != 2 {
		t.Errorf("Frames = %d, want 2", got)
	}
}

func TestTracker_ConcurrentReaders(t *testing.T) {
	tr := NewTracker(0)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				st := tr.State()
				// A raised snapshot always has all five points, a lowered
				// one too; a torn read would mix nil and non-nil fields.
				if st.Frames > 0 && st.Snapshot.Count() != 5 {
					t.Errorf("torn snapshot: %+v", st.Snapshot)
					return
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		if i%2 == 0 {
			tr.Update(raised())
		} else {
			tr.Update(lowered())
		}
	}
	time.Sleep(5 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestTracker_ResetIf(t *testing.T) {
	tr := NewTracker(DefaultRequiredFrames)
	for i := 0; i < 3; i++ {
		tr.Update(raised())
	}
	first := <-tr.Confirmations()
	if first.Generation != 1 {
		t.Fatalf("first generation = %d, want 1", first.Generation)
	}

	// An explicit reset and a new streak happen while the first
	// confirmation is still being handled.
	tr.Reset()
	for i := 0; i < 3; i++ {
		tr.Update(raised())
	}

	if tr.ResetIf(first.Generation) {
		t.Error("ResetIf reset a newer confirmation")
	}
	if st := tr.State(); !st.Confirmed || st.Count != 3 || st.Generation != 2 {
		t.Fatalf("second confirmation lost: %+v", st)
	}

	var second State
	select {
	case second = <-tr.Confirmations():
	default:
		t.Fatal("second confirmation not delivered")
	}

	if !tr.ResetIf(second.Generation) {
		t.Error("ResetIf did not reset the current confirmation")
	}
	if st := tr.State(); st.Confirmed || st.Count != 0 || st.Generation != 2 {
		t.Errorf("state after ResetIf = %+v, want idle with generation 2", st)
	}
	if tr.ResetIf(second.Generation) {
		t.Error("ResetIf reset an already idle tracker")
	}
}
