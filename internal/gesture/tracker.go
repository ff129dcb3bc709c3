// Package gesture tracks the "both hands raised" gesture across frames.
package gesture

import (
	"sync"
	"sync/atomic"

	"github.com/ayusman/poseguard/internal/pose"
)

// DefaultRequiredFrames is the number of consecutive qualifying frames needed
// before the gesture is confirmed.
const DefaultRequiredFrames = 3

// Phase is the tracker's position in the confirmation state machine.
type Phase string

const (
	// PhaseIdle means no qualifying frame has been seen since the last reset
	// or disqualifying frame.
	PhaseIdle Phase = "idle"
	// PhaseAccumulating means a streak of qualifying frames is in progress.
	PhaseAccumulating Phase = "accumulating"
	// PhaseConfirmed means the gesture was confirmed and awaits Reset.
	PhaseConfirmed Phase = "confirmed"
)

// State is an immutable view of the tracker after a frame.
type State struct {
	Snapshot  pose.Snapshot `json:"snapshot"`
	Count     int           `json:"count"`
	Confirmed bool          `json:"confirmed"`
	Frames    uint64        `json:"frames"`
	// Generation counts confirmations since the tracker was created. It
	// identifies a confirmation for ResetIf.
	Generation uint64 `json:"generation"`
}

// Phase derives the state machine phase from the state.
func (s State) Phase() Phase {
	switch {
	case s.Confirmed:
		return PhaseConfirmed
	case s.Count == 0:
		return PhaseIdle
	default:
		return PhaseAccumulating
	}
}

// Tracker debounces the hands-raised gesture. Writers are serialized;
// readers load the latest State without locking and never see a partially
// updated value.
type Tracker struct {
	required      int
	mu            sync.Mutex
	state         atomic.Pointer[State]
	confirmations chan State
}

// NewTracker creates a Tracker that confirms after required consecutive
// qualifying frames. Values <= 0 select DefaultRequiredFrames.
func NewTracker(required int) *Tracker {
	if required <= 0 {
		required = DefaultRequiredFrames
	}
	t := &Tracker{
		required:      required,
		confirmations: make(chan State, 1),
	}
	t.state.Store(&State{})
	return t
}

// Required returns the confirmation threshold.
func (t *Tracker) Required() int {
	return t.required
}

// Publish implements analyzer.Sink.
func (t *Tracker) Publish(snapshot pose.Snapshot) {
	t.Update(snapshot)
}

// Update records the snapshot for a new frame and advances the state machine.
//
// A frame qualifies when both wrists and the head are present and both wrists
// are above the head. A qualifying frame extends the streak; anything else
// resets it to zero. Once confirmed, the counter is frozen until Reset, and
// the snapshot keeps updating for the overlay.
func (t *Tracker) Update(snapshot pose.Snapshot) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.state.Load()
	next := State{
		Snapshot:   snapshot,
		Count:      prev.Count,
		Confirmed:  prev.Confirmed,
		Frames:     prev.Frames + 1,
		Generation: prev.Generation,
	}

	fired := false
	if !next.Confirmed {
		if snapshot.HandsAboveHead() {
			next.Count++
		} else {
			next.Count = 0
		}
		if next.Count >= t.required {
			next.Confirmed = true
			next.Generation++
			fired = true
		}
	}

	t.state.Store(&next)

	if fired {
		select {
		case t.confirmations <- next:
		default:
		}
	}

	return next
}

// Reset clears the counter and the confirmed flag. A pending, unconsumed
// confirmation is discarded.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// ResetIf resets the tracker only while the confirmation with the given
// generation is still the current state. It reports whether it reset.
// A consumer that finishes handling a confirmation uses it so a newer
// confirmation reached after an explicit Reset is not wiped.
func (t *Tracker) ResetIf(generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.state.Load()
	if !prev.Confirmed || prev.Generation != generation {
		return false
	}
	t.resetLocked()
	return true
}

func (t *Tracker) resetLocked() {
	prev := t.state.Load()
	t.state.Store(&State{
		Snapshot:   prev.Snapshot,
		Frames:     prev.Frames,
		Generation: prev.Generation,
	})

	select {
	case <-t.confirmations:
	default:
	}
}

// State returns the latest state.
func (t *Tracker) State() State {
	return *t.state.Load()
}

// Snapshot returns the latest landmark snapshot.
func (t *Tracker) Snapshot() pose.Snapshot {
	return t.state.Load().Snapshot
}

// Confirmed reports whether the gesture is confirmed and not yet reset.
func (t *Tracker) Confirmed() bool {
	return t.state.Load().Confirmed
}

// Confirmations delivers one State each time the gesture becomes confirmed.
// The consumer is expected to call ResetIf with the state's Generation
// after handling it.
func (t *Tracker) Confirmations() <-chan State {
	return t.confirmations
}
