// Package server exposes the pipeline's optional HTTP observability
// surface: liveness, readiness, and Prometheus-text metrics. It never
// touches the core data path — the pipeline runs identically whether or
// not this server is enabled.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sigwatch/waterfall/internal/config"
	"github.com/sigwatch/waterfall/internal/queue"
	"github.com/sigwatch/waterfall/internal/reader"
	"github.com/sigwatch/waterfall/internal/state"
	"github.com/sigwatch/waterfall/internal/websocket"
)

var startTime = time.Now()

// pushFeedInterval is the UI push feed's own broadcast cadence, independent
// of the renderer's internal poll interval.
const pushFeedInterval = 33 * time.Millisecond // ~30Hz, within spec.md §6's 25-40Hz UI range

// Server is the pipeline's HTTP observability surface plus the optional
// WebSocket push feed.
type Server struct {
	cfg      config.ServerConfig
	logger   *slog.Logger
	http     *http.Server
	metrics  *Metrics
	wsCancel context.CancelFunc
	feed     *websocket.Feed
}

// New builds a Server. rdr may be nil; the reader's dropped-frame, gap and
// discard metrics then report zero.
func New(cfg config.ServerConfig, st *state.State, q *queue.FrameQueue, rdr *reader.Reader, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger}
	s.metrics = NewMetrics(st, q, rdr)

	wsManager := websocket.NewManager(logger)
	s.feed = websocket.NewFeed(wsManager, st, pushFeedInterval, logger)

	mux := http.NewServeMux()
	mux.Handle("/healthz", NewHealthHandler())
	mux.Handle("/readyz", NewReadinessHandler(st))
	mux.HandleFunc(cfg.MetricsPath, s.metrics.ServeHTTP)
	mux.Handle("/ws", websocket.NewHandler(wsManager, logger))

	handler := RequestIDMiddleware()(mux)
	handler = LoggingMiddleware(logger)(handler)
	handler = RecoveryMiddleware(logger)(handler)
	handler = CompressionMiddleware()(handler)

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening for HTTP connections and starts the push feed. It
// blocks until the server stops; http.ErrServerClosed from a graceful Stop
// is not an error.
func (s *Server) Start() error {
	feedCtx, cancel := context.WithCancel(context.Background())
	s.wsCancel = cancel
	go s.feed.Run(feedCtx)

	s.logger.Info("observability server starting", "address", s.cfg.Address)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("observability server shutting down")
	if s.wsCancel != nil {
		s.wsCancel()
	}
	return s.http.Shutdown(ctx)
}
