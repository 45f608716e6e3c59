package queue

import (
	"testing"
	"time"

	"github.com/sigwatch/waterfall/internal/wire"
)

func TestFIFOOrder(t *testing.T) {
	q := New(4)
	for i := 0; i < 4; i++ {
		f := wire.Frame{float32(i)}
		if !q.TryPush(f) {
			t.Fatalf("push %d: expected success", i)
		}
	}
	for i := 0; i < 4; i++ {
		f, ok := q.TryPop()
		if !ok {
			t.Fatalf("pop %d: expected a frame", i)
		}
		if f[0] != float32(i) {
			t.Errorf("pop %d: expected frame %d, got %v (FIFO order violated)", i, i, f)
		}
	}
}

func TestTryPushFailsWhenFull(t *testing.T) {
	q := New(2)
	if !q.TryPush(wire.Frame{0}) || !q.TryPush(wire.Frame{1}) {
		t.Fatal("expected first two pushes to succeed")
	}
	if q.TryPush(wire.Frame{2}) {
		t.Error("expected push into a full queue to fail; the queue must never silently drop")
	}
	if q.Len() != 2 {
		t.Errorf("expected len 2, got %d", q.Len())
	}
}

// TestProducerDropOldestPolicy exercises the pattern the Reader is expected
// to implement on top of the queue: TryPush, and on failure pop the oldest
// entry and retry once before counting the frame as lost. The queue itself
// provides only the primitives; it never drops on its own.
func TestProducerDropOldestPolicy(t *testing.T) {
	q := New(2)
	q.TryPush(wire.Frame{0})
	q.TryPush(wire.Frame{1})

	pushOrDropOldest := func(f wire.Frame) (dropped bool) {
		if q.TryPush(f) {
			return false
		}
		q.TryPop()
		q.TryPush(f)
		return true
	}

	pushOrDropOldest(wire.Frame{2})

	first, ok := q.TryPop()
	if !ok || first[0] != 1 {
		t.Errorf("expected oldest frame (0) to have been dropped, front is now %v", first)
	}
	second, ok := q.TryPop()
	if !ok || second[0] != 2 {
		t.Errorf("expected newest frame (2) at the back, got %v", second)
	}
}

func TestPopBlocksUntilAvailable(t *testing.T) {
	q := New(1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		q.TryPush(wire.Frame{42})
	}()

	start := time.Now()
	f, ok := q.Pop(time.Second)
	if !ok {
		t.Fatal("expected a frame to arrive before the timeout")
	}
	if f[0] != 42 {
		t.Errorf("expected frame 42, got %v", f)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("Pop returned suspiciously fast; expected it to wait for the producer")
	}
}

func TestPopTimesOutWhenEmpty(t *testing.T) {
	q := New(1)
	start := time.Now()
	_, ok := q.Pop(30 * time.Millisecond)
	if ok {
		t.Fatal("expected Pop to time out on an empty queue")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("Pop returned too early: %s", elapsed)
	}
}

func TestLenAndCapacity(t *testing.T) {
	q := New(50)
	if q.Capacity() != 50 {
		t.Errorf("expected capacity 50, got %d", q.Capacity())
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got len %d", q.Len())
	}
	q.TryPush(wire.Frame{1, 2, 3})
	if q.Len() != 1 {
		t.Errorf("expected len 1 after one push, got %d", q.Len())
	}
}
