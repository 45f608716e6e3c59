package mockdevice

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/sigwatch/waterfall/internal/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListenAndServeStreamsFramesDecodableByReassembler(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // free the port; the device re-listens on it

	frame := []float32{1, 2, 3, 4}
	dev := New(addr, 4, 8, time.Millisecond, StaticSource(frame), discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- dev.ListenAndServe(ctx) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dialing mock device: %v", err)
	}
	defer conn.Close()

	reassembler := wire.NewReassembler(4, 8, discardLogger())
	br := bufio.NewReader(conn)
	got, err := reassembler.Next(br)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	for i, v := range frame {
		if got[i] != v {
			t.Errorf("sample %d: expected %v, got %v", i, v, got[i])
		}
	}

	cancel()
	<-serveErr
}

func TestSineSourcePeaksAtRequestedBin(t *testing.T) {
	src := SineSource(32, 16)
	frame := src()
	peakIdx := 0
	for i, v := range frame {
		if v > frame[peakIdx] {
			peakIdx = i
		}
	}
	if peakIdx != 16 {
		t.Errorf("expected the peak near bin 16, got bin %d", peakIdx)
	}
}

func TestStaticSourceReturnsIndependentCopies(t *testing.T) {
	src := StaticSource([]float32{1, 2, 3})
	a := src()
	a[0] = 999
	b := src()
	if b[0] != 1 {
		t.Error("expected StaticSource to return a fresh copy each call")
	}
}
