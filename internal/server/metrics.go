package server

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/sigwatch/waterfall/internal/queue"
	"github.com/sigwatch/waterfall/internal/reader"
	"github.com/sigwatch/waterfall/internal/state"
)

// Metrics serves the pipeline's counters and gauges in Prometheus text
// format.
type Metrics struct {
	st    *state.State
	queue *queue.FrameQueue
	rdr   *reader.Reader
}

// NewMetrics builds a Metrics exporter. rdr may be nil.
func NewMetrics(st *state.State, q *queue.FrameQueue, rdr *reader.Reader) *Metrics {
	return &Metrics{st: st, queue: q, rdr: rdr}
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	var b strings.Builder
	stats := m.st.Stats()

	b.WriteString("# HELP waterfall_frames_processed_total Total frames published to the waterfall ring.\n")
	b.WriteString("# TYPE waterfall_frames_processed_total counter\n")
	fmt.Fprintf(&b, "waterfall_frames_processed_total %d\n", stats.FramesProcessed)

	var dropped uint64
	var gaps, discards int
	if m.rdr != nil {
		dropped = m.rdr.DroppedFrames()
		gaps, discards = m.rdr.Stats()
	}

	b.WriteString("# HELP waterfall_frames_dropped_total Total frames dropped due to frame queue overflow.\n")
	b.WriteString("# TYPE waterfall_frames_dropped_total counter\n")
	fmt.Fprintf(&b, "waterfall_frames_dropped_total %d\n", dropped)

	b.WriteString("# HELP waterfall_packet_gaps_total Total packet_id gaps observed during reassembly.\n")
	b.WriteString("# TYPE waterfall_packet_gaps_total counter\n")
	fmt.Fprintf(&b, "waterfall_packet_gaps_total %d\n", gaps)

	b.WriteString("# HELP waterfall_frame_discards_total Total in-flight frames discarded by the reassembler.\n")
	b.WriteString("# TYPE waterfall_frame_discards_total counter\n")
	fmt.Fprintf(&b, "waterfall_frame_discards_total %d\n", discards)

	b.WriteString("# HELP waterfall_queue_depth Current number of frames waiting in the frame queue.\n")
	b.WriteString("# TYPE waterfall_queue_depth gauge\n")
	fmt.Fprintf(&b, "waterfall_queue_depth %d\n", m.queue.Len())

	b.WriteString("# HELP waterfall_batch_size Size of the most recently published processor batch.\n")
	b.WriteString("# TYPE waterfall_batch_size gauge\n")
	fmt.Fprintf(&b, "waterfall_batch_size %d\n", stats.BatchSize)

	b.WriteString("# HELP waterfall_go_goroutines Number of goroutines.\n")
	b.WriteString("# TYPE waterfall_go_goroutines gauge\n")
	fmt.Fprintf(&b, "waterfall_go_goroutines %d\n", runtime.NumGoroutine())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	b.WriteString("# HELP waterfall_go_memstats_alloc_bytes Number of bytes allocated.\n")
	b.WriteString("# TYPE waterfall_go_memstats_alloc_bytes gauge\n")
	fmt.Fprintf(&b, "waterfall_go_memstats_alloc_bytes %d\n", mem.Alloc)

	w.Write([]byte(b.String()))
}
