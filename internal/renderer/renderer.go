// Package renderer implements the Renderer worker: on a 10ms poll cadence
// it snapshots the Waterfall Ring, maps it through a precomputed colormap,
// and publishes an RGB image to the shared State facade.
package renderer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sigwatch/waterfall/internal/state"
)

// Renderer polls the shared data lock's dirty flag and is the sole writer
// of the Waterfall Image.
type Renderer struct {
	st           *state.State
	pollInterval time.Duration
	colormap     *Colormap
	logger       *slog.Logger
}

// New builds a Renderer with a freshly precomputed jet colormap.
func New(st *state.State, pollInterval time.Duration, logger *slog.Logger) *Renderer {
	return &Renderer{
		st:           st,
		pollInterval: pollInterval,
		colormap:     NewJetColormap(),
		logger:       logger,
	}
}

// Run polls every pollInterval until ctx is cancelled, structurally
// identical to the teacher's file-watcher's ticker + select + ctx.Done()
// loop.
func (r *Renderer) Run(ctx context.Context) {
	r.st.RendererRunning.Store(true)
	defer r.st.RendererRunning.Store(false)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.renderOnce()
		case <-ctx.Done():
			return
		}
	}
}

func (r *Renderer) renderOnce() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("renderer: recovered from panic", "recovered", rec)
		}
	}()

	rows, ok := r.st.ConsumeDirtyRing()
	if !ok {
		return
	}
	r.st.SetImage(r.render(rows))
}

// render flips the ring vertically (newest row first), transposes it, and
// maps every normalized value through the colormap, mirroring
// data_process.py's _image_conversion_loop exactly: flipud then transpose
// before indexing into the palette.
func (r *Renderer) render(rows []state.Row) []byte {
	if len(rows) == 0 {
		return nil
	}
	R := len(rows)
	C := len(rows[0])

	img := make([]byte, C*R*3)
	for a := 0; a < C; a++ {
		for b := 0; b < R; b++ {
			timeIdx := R - 1 - b // flipud: newest row first
			v := rows[timeIdx][a]
			rgb := r.colormap[colorIndex(v)]
			off := (a*R + b) * 3
			img[off] = rgb[0]
			img[off+1] = rgb[1]
			img[off+2] = rgb[2]
		}
	}
	return img
}

// colorIndex maps a normalized value in [0,1] to a colormap index,
// truncating like numpy's astype(uint8) rather than rounding.
func colorIndex(v float32) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return int(v * 255)
	}
}
