// Package reader implements the Wire Reader worker: it owns the TCP
// connection to the signal-source device and the in-flight reassembly
// buffer exclusively, handing off completed Frames to the Frame Queue.
package reader

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sigwatch/waterfall/internal/config"
	"github.com/sigwatch/waterfall/internal/queue"
	"github.com/sigwatch/waterfall/internal/state"
	"github.com/sigwatch/waterfall/internal/wire"
)

// Reader owns the socket and the reassembly buffer exclusively; nothing
// else touches either.
type Reader struct {
	cfg    config.WireConfig
	st     *state.State
	queue  *queue.FrameQueue
	logger *slog.Logger

	droppedFrames atomic.Uint64

	mu          sync.Mutex
	reassembler *wire.Reassembler
}

// New builds a Reader. cfg.PacketSize must evenly divide st's FFT length in
// bytes; config.Config.Validate enforces this upstream of construction.
func New(cfg config.WireConfig, st *state.State, q *queue.FrameQueue, logger *slog.Logger) *Reader {
	return &Reader{cfg: cfg, st: st, queue: q, logger: logger}
}

// DroppedFrames reports how many frames were discarded because the Frame
// Queue was full: oldest frames evicted to make room, plus new frames whose
// retry push also failed.
func (r *Reader) DroppedFrames() uint64 { return r.droppedFrames.Load() }

// Stats reports the underlying reassembler's packet-gap and discard
// counters, or (0, 0) before the first connection is established.
func (r *Reader) Stats() (gaps, discards int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reassembler == nil {
		return 0, 0
	}
	return r.reassembler.Stats()
}

// Run dials the device and reads frames until ctx is cancelled or the
// connection fails. A transport error is logged and returned wrapped; it is
// never fatal to the process — callers decide whether to redial.
func (r *Reader) Run(ctx context.Context) error {
	r.st.ReaderRunning.Store(true)
	defer r.st.ReaderRunning.Store(false)

	addr := fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port)
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		r.logger.Error("wire reader: dial failed", "addr", addr, "error", err)
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetReadBuffer(r.cfg.RecvBufferBytes); err != nil {
			r.logger.Warn("wire reader: failed to set read buffer hint", "error", err)
		}
	}

	r.st.NotifyConnectionState(true)
	defer r.st.NotifyConnectionState(false)
	r.logger.Info("wire reader: connected", "addr", addr)

	reassembler := wire.NewReassembler(r.st.FFTLength(), r.cfg.PacketSize, r.logger)
	r.mu.Lock()
	r.reassembler = reassembler
	r.mu.Unlock()

	closeOnCancel := make(chan struct{})
	defer close(closeOnCancel)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-closeOnCancel:
		}
	}()

	br := bufio.NewReaderSize(conn, r.cfg.PacketSize*4)

	for {
		frame, err := reassembler.Next(br)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("wire reader: connection lost", "addr", addr, "error", err)
			return fmt.Errorf("reading frame: %w", err)
		}
		r.enqueue(frame)
	}
}

// enqueue implements the producer-side drop-oldest-on-overflow policy from
// spec.md §4.2: try a direct push; if the queue is full, pop the oldest
// frame to make room (counting it as dropped) and retry once before
// counting the new frame as lost too. The queue itself never drops on its
// own.
func (r *Reader) enqueue(f wire.Frame) {
	if r.queue.TryPush(f) {
		return
	}
	if _, ok := r.queue.TryPop(); ok {
		total := r.droppedFrames.Add(1)
		r.logger.Warn("wire reader: frame queue overflow, dropping oldest frame", "dropped_total", total)
		if r.queue.TryPush(f) {
			return
		}
	}
	total := r.droppedFrames.Add(1)
	r.logger.Warn("wire reader: frame queue overflow, dropping frame", "dropped_total", total)
}
