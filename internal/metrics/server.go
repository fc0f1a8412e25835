package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves Prometheus metrics over HTTP.
type Server struct {
	addr   string
	path   string
	server *http.Server
	mu     sync.RWMutex // protects server field
	logger *slog.Logger
}

// NewServer creates a new metrics server listening on addr.
func NewServer(addr, path string, log *slog.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{
		addr:   addr,
		path:   path,
		logger: log.With("component", "metrics_server"),
	}
}

// Start starts the metrics server. It returns once the listener is
// running; serve errors are logged, not returned.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.Handler())

	// Health endpoint for the metrics server itself
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("Starting metrics server", "addr", s.addr, "path", s.path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("Stopping metrics server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
