// Package state holds the shared artifacts the pipeline's four workers
// produce and consume: the Waterfall Ring, Latest Spectrum, Stats, and
// Waterfall Image, plus lifecycle flags and a parameter/observer registry.
// Everything outside this package only ever sees copies.
package state

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sigwatch/waterfall/internal/config"
)

// Stats is a point-in-time copy of the processor's running counters.
type Stats struct {
	FramesProcessed uint64
	Min             float64
	Max             float64
	BatchSize       int
	R               int
	N               int
}

// State is the shared facade described in spec.md §4.5: ring, latest
// spectrum, stats and dirty flag behind one "data lock"; the rendered image
// behind a separate "image lock" so the Renderer can take its time without
// blocking the Processor's publishes.
type State struct {
	logger *slog.Logger

	Host       string
	Port       int
	PacketSize int // P, bytes

	dataMu         sync.RWMutex
	fftLength      int // N == R == C
	ring           *Ring
	latestSpectrum Row
	stats          Stats
	dirty          bool
	params         map[string]map[string]any

	imageMu sync.RWMutex
	image   []byte // R*N*3, zeroed until the first render

	ReaderRunning    atomic.Bool
	ProcessorRunning atomic.Bool
	RendererRunning  atomic.Bool
	DetectorRunning  atomic.Bool

	Observers *Observers
}

// New builds a State seeded from cfg: ring/image sized N×N, and the FFT/UI/
// Detection parameter groups pre-populated from the config defaults so a
// fresh SetParameter caller can read back what it hasn't changed yet.
func New(cfg *config.Config, logger *slog.Logger) *State {
	n := cfg.FFT.Length
	s := &State{
		logger:     logger,
		Host:       cfg.Wire.Host,
		Port:       cfg.Wire.Port,
		PacketSize: cfg.Wire.PacketSize,
		fftLength:  n,
		ring:       NewRing(n, n),
		image:      make([]byte, n*n*3),
		params:     defaultParams(cfg),
		Observers:  NewObservers(logger),
	}
	return s
}

func defaultParams(cfg *config.Config) map[string]map[string]any {
	return map[string]map[string]any{
		"FFT": {
			"Length":                cfg.FFT.Length,
			"Decimation_factor":     cfg.FFT.DecimationFactor,
			"Centre_frequency(MHz)": cfg.FFT.CentreFrequencyMHz,
			"bandwidth(MHz)":        cfg.FFT.BandwidthMHz,
		},
		"UI": {
			"spectum_left_freq(MHz)":  cfg.UI.SpectrumLeftFreqMHz,
			"spectum_right_freq(MHz)": cfg.UI.SpectrumRightFreqMHz,
		},
		"Detection": {
			"conf_threshold": cfg.Detection.ConfThreshold,
			"iou_threshold":  cfg.Detection.IOUThreshold,
		},
	}
}

// LatestSpectrum returns a copy of the most recently published row, and
// false if the Processor has not published anything yet.
func (s *State) LatestSpectrum() (Row, bool) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	if s.latestSpectrum == nil {
		return nil, false
	}
	out := make(Row, len(s.latestSpectrum))
	copy(out, s.latestSpectrum)
	return out, true
}

// WaterfallSnapshot returns a copy of the ring's rows, oldest first.
func (s *State) WaterfallSnapshot() []Row {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.ring.Snapshot()
}

// WaterfallImage returns a copy of the current rendered RGB image.
func (s *State) WaterfallImage() []byte {
	s.imageMu.RLock()
	defer s.imageMu.RUnlock()
	out := make([]byte, len(s.image))
	copy(out, s.image)
	return out
}

// Stats returns a copy of the running counters.
func (s *State) Stats() Stats {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.stats
}

// FFTLength returns the current N.
func (s *State) FFTLength() int {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.fftLength
}

// PublishBatch is the Processor's sole write path: it appends every row of
// a normalized batch to the ring in order, records the last row as the
// latest spectrum, updates stats, and raises the dirty flag — all under one
// data-lock acquisition so consumers never observe a partial batch.
func (s *State) PublishBatch(rows []Row, batchMin, batchMax float64) {
	if len(rows) == 0 {
		return
	}
	s.dataMu.Lock()
	for _, row := range rows {
		s.ring.Append(row)
	}
	s.latestSpectrum = s.ring.Latest()
	s.stats = Stats{
		FramesProcessed: s.stats.FramesProcessed + uint64(len(rows)),
		Min:             batchMin,
		Max:             batchMax,
		BatchSize:       len(rows),
		R:               s.ring.Rows(),
		N:               s.ring.Cols(),
	}
	s.dirty = true
	s.dataMu.Unlock()
}

// ConsumeDirtyRing is the Renderer's read path: if the ring has changed
// since the last render, it returns a snapshot and clears the dirty flag
// under the same lock acquisition that read it, exactly as spec.md §4.4
// requires. ok is false when nothing has changed.
func (s *State) ConsumeDirtyRing() (rows []Row, ok bool) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if !s.dirty {
		return nil, false
	}
	rows = s.ring.Snapshot()
	s.dirty = false
	return rows, true
}

// SetImage replaces the shared rendered image. Sole writer: the Renderer.
func (s *State) SetImage(img []byte) {
	s.imageMu.Lock()
	defer s.imageMu.Unlock()
	s.image = img
}

// AnyWorkerRunning reports whether the Reader, Processor, or Renderer is
// currently active.
func (s *State) AnyWorkerRunning() bool {
	return s.ReaderRunning.Load() || s.ProcessorRunning.Load() || s.RendererRunning.Load()
}

// SetFFTLength resizes the ring and image to n×n, zeroing both and clearing
// the dirty flag. Per spec.md §4.5, this is only safe when Reader, Processor,
// and Renderer are all stopped; callers racing a live pipeline get an error
// instead of an undefined resize.
func (s *State) SetFFTLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("fft length must be positive, got %d", n)
	}
	if s.AnyWorkerRunning() {
		return fmt.Errorf("cannot resize FFT length while the pipeline is running")
	}

	s.imageMu.Lock()
	s.dataMu.Lock()
	s.fftLength = n
	s.ring = NewRing(n, n)
	s.latestSpectrum = nil
	s.stats = Stats{}
	s.dirty = false
	s.dataMu.Unlock()
	s.image = make([]byte, n*n*3)
	s.imageMu.Unlock()

	if s.params != nil {
		s.params["FFT"]["Length"] = n
	}
	return nil
}

// SetParameter stores a configuration value under group/name and notifies
// observers synchronously on the calling goroutine, mirroring state.py's
// parameters_changed signal.
func (s *State) SetParameter(group, name string, value any) {
	s.dataMu.Lock()
	if s.params == nil {
		s.params = make(map[string]map[string]any)
	}
	if s.params[group] == nil {
		s.params[group] = make(map[string]any)
	}
	s.params[group][name] = value
	s.dataMu.Unlock()

	s.Observers.Notify(Event{Kind: EventParameter, Group: group, Name: name, Value: value})
}

// Parameter reads back a previously stored configuration value.
func (s *State) Parameter(group, name string) (any, bool) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	g, ok := s.params[group]
	if !ok {
		return nil, false
	}
	v, ok := g[name]
	return v, ok
}

// NotifyConnectionState reports a Reader connection-state transition to
// observers.
func (s *State) NotifyConnectionState(connected bool) {
	s.Observers.Notify(Event{Kind: EventConnection, Connected: connected})
}
