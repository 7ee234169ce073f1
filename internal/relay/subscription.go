package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Frame is one unit queued for a push channel. Keepalive frames carry no
// data; transports render them as an SSE comment or a WebSocket ping.
type Frame struct {
	Data      []byte
	Keepalive bool
}

// Subscription is the registry's handle on one open push channel.
// The transport that created it drains Frames until Done is closed.
type Subscription struct {
	ID        string
	JobID     string
	CreatedAt time.Time

	frames   chan Frame
	done     chan struct{}
	doneOnce sync.Once
}

func newSubscription(jobID string, bufferSize int, now time.Time) *Subscription {
	return &Subscription{
		ID:        uuid.NewString(),
		JobID:     jobID,
		CreatedAt: now,
		frames:    make(chan Frame, bufferSize),
		done:      make(chan struct{}),
	}
}

// Frames returns the queue of frames waiting to be written to the peer.
func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Done is closed once the subscription has been released, either because
// the peer went away, a newer subscription replaced it or the relay closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// enqueue never blocks. It reports false when the subscription is released
// or its queue is full.
func (s *Subscription) enqueue(f Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.frames <- f:
		return true
	default:
		return false
	}
}

// frames is never closed so a late enqueue cannot panic.
func (s *Subscription) release() {
	s.doneOnce.Do(func() { close(s.done) })
}
