package reader

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/sigwatch/waterfall/internal/config"
	"github.com/sigwatch/waterfall/internal/queue"
	"github.com/sigwatch/waterfall/internal/state"
	"github.com/sigwatch/waterfall/internal/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReaderState(t *testing.T, fftLength int) *state.State {
	t.Helper()
	cfg := config.Default()
	cfg.FFT.Length = fftLength
	return state.New(cfg, discardLogger())
}

func buildPacket(packetID uint32, samples []float32) []byte {
	h := wire.Header{Magic: wire.Magic, PacketID: packetID, PayloadLength: uint32(len(samples) * 4)}
	return append(wire.EncodeHeader(h), wire.EncodeSamples(samples)...)
}

func TestEnqueueDropsOldestOnOverflow(t *testing.T) {
	q := queue.New(2)
	r := New(config.WireConfig{}, testReaderState(t, 4), q, discardLogger())

	r.enqueue(wire.Frame{0})
	r.enqueue(wire.Frame{1})
	r.enqueue(wire.Frame{2}) // queue full: must drop frame 0, keep 1 then push 2

	if got := r.DroppedFrames(); got != 1 {
		t.Fatalf("expected 1 dropped frame, got %d", got)
	}

	first, ok := q.TryPop()
	if !ok || first[0] != 1 {
		t.Errorf("expected oldest surviving frame to be 1, got %v", first)
	}
	second, ok := q.TryPop()
	if !ok || second[0] != 2 {
		t.Errorf("expected newest frame 2, got %v", second)
	}
}

func TestRunProducesFramesFromRealSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	frameA := []float32{1, 2, 3, 4}
	frameB := []float32{5, 6, 7, 8}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(buildPacket(0, frameA[0:2]))
		conn.Write(buildPacket(1, frameA[2:4]))
		conn.Write(buildPacket(0, frameB[0:2]))
		conn.Write(buildPacket(1, frameB[2:4]))
		time.Sleep(50 * time.Millisecond)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	st := testReaderState(t, 4)
	q := queue.New(4)
	r := New(config.WireConfig{
		Host:       addr.IP.String(),
		Port:       addr.Port,
		PacketSize: 8, // 2 samples * 4 bytes
	}, st, q, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	first, ok := q.Pop(time.Second)
	if !ok {
		t.Fatal("expected the first frame within a second")
	}
	for i, v := range frameA {
		if first[i] != v {
			t.Errorf("frame A[%d]: expected %v, got %v", i, v, first[i])
		}
	}

	second, ok := q.Pop(time.Second)
	if !ok {
		t.Fatal("expected the second frame within a second")
	}
	for i, v := range frameB {
		if second[i] != v {
			t.Errorf("frame B[%d]: expected %v, got %v", i, v, second[i])
		}
	}

	<-done
}

func TestRunReturnsPromptlyOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-time.After(2 * time.Second)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	st := testReaderState(t, 4)
	q := queue.New(4)
	r := New(config.WireConfig{
		Host:       addr.IP.String(),
		Port:       addr.Port,
		PacketSize: 8,
	}, st, q, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a clean nil return on cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return within a second of context cancellation")
	}
}
