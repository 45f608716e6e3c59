// Package queue implements the bounded Frame Queue that sits between the
// Wire Reader and the Processor: a strict FIFO that never silently drops —
// drop-oldest-on-overflow is the producer's responsibility (see
// internal/reader), not the queue's.
package queue

import (
	"time"

	"github.com/sigwatch/waterfall/internal/wire"
)

// FrameQueue is a bounded, thread-safe FIFO of Frames backed by a buffered
// channel, mirroring the "available chan *Worker" pattern this corpus uses
// for its own bounded worker pools.
type FrameQueue struct {
	ch chan wire.Frame
}

// New creates a FrameQueue with the given capacity.
func New(capacity int) *FrameQueue {
	return &FrameQueue{ch: make(chan wire.Frame, capacity)}
}

// TryPush attempts a non-blocking push. It returns false if the queue is
// full; callers that want drop-oldest-on-overflow must implement that
// themselves by combining TryPush with TryPop.
func (q *FrameQueue) TryPush(f wire.Frame) bool {
	select {
	case q.ch <- f:
		return true
	default:
		return false
	}
}

// Pop blocks for up to timeout waiting for a Frame. It returns false if the
// timeout elapses with nothing available.
func (q *FrameQueue) Pop(timeout time.Duration) (wire.Frame, bool) {
	select {
	case f := <-q.ch:
		return f, true
	case <-time.After(timeout):
		return nil, false
	}
}

// TryPop attempts a non-blocking pop.
func (q *FrameQueue) TryPop() (wire.Frame, bool) {
	select {
	case f := <-q.ch:
		return f, true
	default:
		return nil, false
	}
}

// Len reports the current number of queued frames.
func (q *FrameQueue) Len() int {
	return len(q.ch)
}

// Capacity reports the queue's fixed capacity.
func (q *FrameQueue) Capacity() int {
	return cap(q.ch)
}
