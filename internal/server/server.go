// Package server exposes the HTTP entrypoint of the runtime: one streaming
// invocation endpoint plus health and metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/tonari/internal/agent"
	"github.com/haasonsaas/tonari/internal/config"
	"github.com/haasonsaas/tonari/internal/observability"
)

// Server is the HTTP front end.
type Server struct {
	cfg     *config.Config
	cache   *agent.Cache
	logger  *slog.Logger
	metrics *observability.Metrics

	httpServer *http.Server
}

// New creates the server. gatherer may be nil to disable /metrics.
func New(cfg *config.Config, cache *agent.Cache, logger *slog.Logger, metrics *observability.Metrics, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		cache:   cache,
		logger:  logger.With("component", "server"),
		metrics: metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/invocations", s.handleInvocations)
	mux.HandleFunc("/healthz", s.handleHealth)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	handler := RequestIDMiddleware(
		LoggingMiddleware(s.logger)(
			AuthMiddleware(cfg.Auth, s.logger)(mux)))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
