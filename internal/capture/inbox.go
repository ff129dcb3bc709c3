package capture

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrInboxClosed is returned when publishing to a closed inbox.
var ErrInboxClosed = errors.New("inbox is closed")

// InboxStats is a point-in-time view of inbox counters.
type InboxStats struct {
	Published uint64 `json:"published"`
	Consumed  uint64 `json:"consumed"`
	Dropped   uint64 `json:"dropped"`
}

// Inbox is a single-slot mailbox between the camera loop and the analysis
// worker. A new frame replaces an unconsumed one, and the replaced frame is
// released, so a slow consumer sees bounded staleness instead of a queue.
type Inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *Frame
	closed bool

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// NewInbox creates an empty Inbox.
func NewInbox() *Inbox {
	b := &Inbox{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish stores frame as the latest frame. It never blocks on the consumer.
// After Close the frame is released and ErrInboxClosed is returned.
func (b *Inbox) Publish(frame *Frame) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		frame.Release()
		return ErrInboxClosed
	}

	stale := b.frame
	b.frame = frame
	b.published.Add(1)
	b.cond.Signal()
	b.mu.Unlock()

	if stale != nil {
		b.dropped.Add(1)
		stale.Release()
	}
	return nil
}

// Next blocks until a frame is available and takes ownership of it.
// It returns nil once the inbox is closed.
func (b *Inbox) Next() *Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.frame == nil && !b.closed {
		b.cond.Wait()
	}
	if b.closed {
		return nil
	}

	frame := b.frame
	b.frame = nil
	b.consumed.Add(1)
	return frame
}

// Close wakes the consumer and releases any pending frame.
// Calling Close more than once is a no-op.
func (b *Inbox) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	pending := b.frame
	b.frame = nil
	b.cond.Broadcast()
	b.mu.Unlock()

	if pending != nil {
		b.dropped.Add(1)
		pending.Release()
	}
}

// Stats returns the current counters.
func (b *Inbox) Stats() InboxStats {
	return InboxStats{
		Published: b.published.Load(),
		Consumed:  b.consumed.Load(),
		Dropped:   b.dropped.Load(),
	}
}
