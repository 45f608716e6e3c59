package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sigwatch/waterfall/internal/state"
)

// HealthHandler serves the liveness endpoint: the process is up.
type HealthHandler struct{}

// NewHealthHandler creates a liveness handler.
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	})
}

// ReadinessHandler reports whether the core pipeline is fully up: Reader,
// Processor, and Renderer all running.
type ReadinessHandler struct {
	st *state.State
}

// NewReadinessHandler creates a readiness handler.
func NewReadinessHandler(st *state.State) *ReadinessHandler {
	return &ReadinessHandler{st: st}
}

func (h *ReadinessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ready := h.st.ReaderRunning.Load() && h.st.ProcessorRunning.Load() && h.st.RendererRunning.Load()

	status := http.StatusOK
	statusStr := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		statusStr = "not_ready"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": statusStr,
		"uptime": time.Since(startTime).String(),
		"workers": map[string]bool{
			"reader":    h.st.ReaderRunning.Load(),
			"processor": h.st.ProcessorRunning.Load(),
			"renderer":  h.st.RendererRunning.Load(),
			"detector":  h.st.DetectorRunning.Load(),
		},
	})
}
