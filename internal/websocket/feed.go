package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sigwatch/waterfall/internal/state"
)

// Snapshot is the msgpack-encoded payload pushed to every connected client:
// the latest spectrum row plus the processor's running stats. It omits the
// rendered waterfall image, which is large and polled separately over plain
// HTTP by anything that wants it.
type Snapshot struct {
	Spectrum []float32   `msgpack:"spectrum"`
	Stats    state.Stats `msgpack:"stats"`
}

// Feed polls State on a fixed interval and broadcasts a Snapshot to every
// connected client. It is the UI-facing counterpart to renderer.Renderer's
// dirty-flag poll, at the UI's own 25-40Hz cadence rather than the
// renderer's internal one.
type Feed struct {
	manager  *Manager
	st       *state.State
	interval time.Duration
	logger   *slog.Logger
}

// NewFeed builds a Feed. interval controls the broadcast cadence.
func NewFeed(manager *Manager, st *state.State, interval time.Duration, logger *slog.Logger) *Feed {
	return &Feed{manager: manager, st: st, interval: interval, logger: logger}
}

// Run broadcasts snapshots until ctx is cancelled. It skips a tick entirely
// when nobody is connected.
func (f *Feed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.broadcastOnce()
		case <-ctx.Done():
			return
		}
	}
}

func (f *Feed) broadcastOnce() {
	if f.manager.Stats().TotalConnections == 0 {
		return
	}

	spectrum, _ := f.st.LatestSpectrum()
	snap := Snapshot{Spectrum: spectrum, Stats: f.st.Stats()}

	data, err := msgpack.Marshal(snap)
	if err != nil {
		f.logger.Error("push feed: encoding snapshot failed", "error", err)
		return
	}
	f.manager.Broadcast(data)
}
