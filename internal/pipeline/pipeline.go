// Package pipeline wires the Reader, Frame Queue, Processor, and Renderer
// into the running system, and supervises their start/stop lifecycle the
// way the teacher's worker pool starts and joins its own workers.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sigwatch/waterfall/internal/config"
	"github.com/sigwatch/waterfall/internal/detect"
	"github.com/sigwatch/waterfall/internal/processor"
	"github.com/sigwatch/waterfall/internal/queue"
	"github.com/sigwatch/waterfall/internal/reader"
	"github.com/sigwatch/waterfall/internal/renderer"
	"github.com/sigwatch/waterfall/internal/state"
)

// Join timeouts per spec.md §5: a worker that doesn't stop in time is
// abandoned rather than awaited indefinitely.
const (
	readerJoinTimeout    = 3 * time.Second
	processorJoinTimeout = 2 * time.Second
	rendererJoinTimeout  = 2 * time.Second
	detectorJoinTimeout  = 3 * time.Second

	readerRedialBackoff = time.Second
)

// Pipeline owns the four workers and the shared State facade.
type Pipeline struct {
	cfg       *config.Config
	st        *state.State
	q         *queue.FrameQueue
	reader    *reader.Reader
	processor *processor.Processor
	renderer  *renderer.Renderer
	logger    *slog.Logger

	detector         detect.Detector
	detectorInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc

	readerDone    chan struct{}
	processorDone chan struct{}
	rendererDone  chan struct{}
	detectorDone  chan struct{}
}

// New builds a Pipeline and its workers from cfg.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	st := state.New(cfg, logger)
	q := queue.New(cfg.Queue.Capacity)
	return &Pipeline{
		cfg:       cfg,
		st:        st,
		q:         q,
		reader:    reader.New(cfg.Wire, st, q, logger),
		processor: processor.New(q, st, cfg.Processor.PopTimeout.Duration(), logger),
		renderer:  renderer.New(st, cfg.Renderer.PollInterval.Duration(), logger),
		logger:    logger,
	}
}

// State returns the shared facade external consumers (a UI, this package's
// own HTTP server) read snapshots from.
func (p *Pipeline) State() *state.State { return p.st }

// Queue returns the Frame Queue, exposed for observability (queue depth).
func (p *Pipeline) Queue() *queue.FrameQueue { return p.q }

// Reader returns the Wire Reader, exposed for observability (dropped
// frames, packet gaps).
func (p *Pipeline) Reader() *reader.Reader { return p.reader }

// SetDetector wires an optional Detector collaborator, polled against
// state.WaterfallImage() on the given interval. Must be called before
// Start.
func (p *Pipeline) SetDetector(d detect.Detector, interval time.Duration) {
	p.detector = d
	p.detectorInterval = interval
}

// Start launches the Reader, Processor, and Renderer (and the Detector
// poller, if one was wired) as independent goroutines. It returns
// immediately; call Stop to shut everything down.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.readerDone = make(chan struct{})
	p.processorDone = make(chan struct{})
	p.rendererDone = make(chan struct{})

	go func() {
		defer close(p.readerDone)
		p.runReaderLoop(runCtx)
	}()
	go func() {
		defer close(p.processorDone)
		p.processor.Run(runCtx)
	}()
	go func() {
		defer close(p.rendererDone)
		p.renderer.Run(runCtx)
	}()

	if p.detector != nil {
		p.detectorDone = make(chan struct{})
		go func() {
			defer close(p.detectorDone)
			p.runDetectorLoop(runCtx)
		}()
	}
}

// runReaderLoop redials after a transport error, until ctx is cancelled.
// A connection failure is never fatal; it just delays the next attempt.
func (p *Pipeline) runReaderLoop(ctx context.Context) {
	for ctx.Err() == nil {
		if err := p.reader.Run(ctx); err != nil {
			p.logger.Warn("pipeline: reader stopped, redialing", "error", err, "backoff", readerRedialBackoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(readerRedialBackoff):
		}
	}
}

func (p *Pipeline) runDetectorLoop(ctx context.Context) {
	p.st.DetectorRunning.Store(true)
	defer p.st.DetectorRunning.Store(false)

	ticker := time.NewTicker(p.detectorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.runDetectorOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) runDetectorOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline: detector panicked", "recovered", r)
		}
	}()

	img := p.st.WaterfallImage()
	if len(img) == 0 {
		return
	}
	n := p.st.FFTLength()
	_, boxes, err := p.detector.Detect(ctx, img, n, n)
	if err != nil {
		p.logger.Error("pipeline: detector error", "error", err)
		return
	}
	p.logger.Debug("pipeline: detector ran", "boxes", len(boxes))
}

// Stop cancels every worker and waits for each to exit, up to its own join
// timeout; a worker that overruns is abandoned rather than blocking
// process shutdown.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	readerDone, processorDone, rendererDone, detectorDone := p.readerDone, p.processorDone, p.rendererDone, p.detectorDone
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	p.joinWithTimeout("reader", readerDone, readerJoinTimeout)
	p.joinWithTimeout("processor", processorDone, processorJoinTimeout)
	p.joinWithTimeout("renderer", rendererDone, rendererJoinTimeout)
	if detectorDone != nil {
		p.joinWithTimeout("detector", detectorDone, detectorJoinTimeout)
	}
}

func (p *Pipeline) joinWithTimeout(name string, done chan struct{}, timeout time.Duration) {
	select {
	case <-done:
	case <-time.After(timeout):
		p.logger.Warn("pipeline: worker did not stop within timeout, abandoning", "worker", name, "timeout", timeout)
	}
}
