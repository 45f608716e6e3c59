// Package processor implements the batch Processor worker: it drains the
// Frame Queue in batches, normalizes them jointly, and publishes the
// result to the shared State facade.
package processor

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/sigwatch/waterfall/internal/queue"
	"github.com/sigwatch/waterfall/internal/state"
	"github.com/sigwatch/waterfall/internal/wire"
)

// degenerateThreshold is the batch range below which normalization would
// divide by a near-zero span; spec.md §4.3 calls for emitting zeros instead.
const degenerateThreshold = 1e-10

// Processor drains the Frame Queue, normalizes each batch jointly, and is
// the sole writer of the Waterfall Ring, Latest Spectrum, and Stats.
type Processor struct {
	queue      *queue.FrameQueue
	st         *state.State
	popTimeout time.Duration
	logger     *slog.Logger
}

// New builds a Processor.
func New(q *queue.FrameQueue, st *state.State, popTimeout time.Duration, logger *slog.Logger) *Processor {
	return &Processor{queue: q, st: st, popTimeout: popTimeout, logger: logger}
}

// Run drains and publishes batches until ctx is cancelled. Each iteration's
// body is recover()-guarded: a programming error is logged and the loop
// sleeps 100ms before retrying rather than taking the worker down.
func (p *Processor) Run(ctx context.Context) {
	p.st.ProcessorRunning.Store(true)
	defer p.st.ProcessorRunning.Store(false)

	for ctx.Err() == nil {
		p.runOnce()
	}
}

func (p *Processor) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("processor: recovered from panic", "recovered", r)
			time.Sleep(100 * time.Millisecond)
		}
	}()

	first, ok := p.queue.Pop(p.popTimeout)
	if !ok {
		return
	}
	batch := []wire.Frame{first}
	for {
		f, ok := p.queue.TryPop()
		if !ok {
			break
		}
		batch = append(batch, f)
	}

	n := p.st.FFTLength()
	rows, batchMin, batchMax := normalizeBatch(batch, n)
	p.st.PublishBatch(rows, batchMin, batchMax)
}

// adjustLength truncates or zero-pads f to exactly n samples.
func adjustLength(f wire.Frame, n int) wire.Frame {
	if len(f) == n {
		return f
	}
	out := make(wire.Frame, n)
	copy(out, f)
	return out
}

// normalizeBatch jointly min-max normalizes every frame in batch against a
// single (m, M) derived across the whole batch. Degenerate batches
// (M-m <= degenerateThreshold) are emitted as all-zero rows.
func normalizeBatch(batch []wire.Frame, n int) (rows []state.Row, batchMin, batchMax float64) {
	if len(batch) == 0 {
		return nil, 0, 0
	}

	adjusted := make([]wire.Frame, len(batch))
	m := math.Inf(1)
	M := math.Inf(-1)
	for i, f := range batch {
		af := adjustLength(f, n)
		adjusted[i] = af
		for _, v := range af {
			fv := float64(v)
			if fv < m {
				m = fv
			}
			if fv > M {
				M = fv
			}
		}
	}

	degenerate := (M - m) <= degenerateThreshold
	rows = make([]state.Row, len(adjusted))
	for i, af := range adjusted {
		row := make(state.Row, n)
		if !degenerate {
			span := M - m
			for j, v := range af {
				row[j] = float32((float64(v) - m) / span)
			}
		}
		rows[i] = row
	}
	return rows, m, M
}
