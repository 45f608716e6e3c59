package renderer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sigwatch/waterfall/internal/config"
	"github.com/sigwatch/waterfall/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestColorIndexBoundaries(t *testing.T) {
	cases := []struct {
		v    float32
		want int
	}{
		{-1, 0}, {0, 0}, {0.5, 127}, {0.999, 254}, {1, 255}, {2, 255},
	}
	for _, c := range cases {
		if got := colorIndex(c.v); got != c.want {
			t.Errorf("colorIndex(%v): expected %d, got %d", c.v, c.want, got)
		}
	}
}

func TestRenderFlipsAndTransposes(t *testing.T) {
	r := &Renderer{colormap: NewJetColormap(), logger: discardLogger()}

	// Two rows, two columns. Row 0 (oldest) is all zero, row 1 (newest) is
	// all one, so post-flip the newest row must land at output column 0.
	rows := []state.Row{
		{0, 0},
		{1, 1},
	}
	img := r.render(rows)
	if len(img) != 2*2*3 {
		t.Fatalf("expected a 2x2x3 image, got len %d", len(img))
	}

	// a=0 (frequency bin 0), b=0 (output column 0) should read the newest
	// row (value 1) -> saturated red.
	off := (0*2 + 0) * 3
	if img[off] != jetRed[0] || img[off+1] != jetRed[1] || img[off+2] != jetRed[2] {
		t.Errorf("expected newest row to map to column 0 as red, got %v", img[off:off+3])
	}

	// a=0, b=1 should read the oldest row (value 0) -> saturated blue.
	off = (0*2 + 1) * 3
	if img[off] != jetBlue[0] || img[off+1] != jetBlue[1] || img[off+2] != jetBlue[2] {
		t.Errorf("expected oldest row to map to column 1 as blue, got %v", img[off:off+3])
	}
}

func TestRenderOnceConsumesDirtyFlagOnly(t *testing.T) {
	cfg := config.Default()
	cfg.FFT.Length = 2
	st := state.New(cfg, discardLogger())
	rend := New(st, 5*time.Millisecond, discardLogger())

	before := st.WaterfallImage()
	rend.renderOnce() // nothing dirty yet
	if string(st.WaterfallImage()) != string(before) {
		t.Error("expected no image change when the ring is not dirty")
	}

	st.PublishBatch([]state.Row{{0, 1}}, 0, 1)
	rend.renderOnce()
	img := st.WaterfallImage()
	if len(img) != 2*1*3 {
		t.Fatalf("expected a 2x1x3 image after one published row, got len %d", len(img))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := config.Default()
	cfg.FFT.Length = 2
	st := state.New(cfg, discardLogger())
	rend := New(st, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rend.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if !st.RendererRunning.Load() {
		t.Error("expected RendererRunning to be true while Run is active")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return within a second of cancellation")
	}
	if st.RendererRunning.Load() {
		t.Error("expected RendererRunning to be false after Run returns")
	}
}
