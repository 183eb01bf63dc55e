// Package server exposes the operational HTTP surface of the indexer:
// Prometheus metrics, health checks, and read-only entity lookups.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/betcore/internal/server/handler"
	"github.com/alanyoungcy/betcore/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr string
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Entities *handler.EntityHandler
}

// Server is the operational HTTP server of one indexer instance.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer registers all routes and middleware. registry may be nil, which
// disables the /metrics endpoint. Entities may be nil in modes without a
// database.
func NewServer(cfg Config, handlers Handlers, registry *prometheus.Registry, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	if registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	if handlers.Entities != nil {
		mux.HandleFunc("GET /api/conditions/{id}", handlers.Entities.GetCondition)
		mux.HandleFunc("GET /api/outcomes/{id}", handlers.Entities.GetOutcome)
		mux.HandleFunc("GET /api/bets/{id}", handlers.Entities.GetBet)
		mux.HandleFunc("GET /api/games/{id}", handlers.Entities.GetGame)
		mux.HandleFunc("GET /api/pools/{id}", handlers.Entities.GetPool)
		mux.HandleFunc("GET /api/freebets/{id}", handlers.Entities.GetFreebet)
		mux.HandleFunc("GET /api/audit", handlers.Entities.ListAudit)
	}

	var h http.Handler = mux
	h = middleware.Logging(log)(h)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		log:        log.With(slog.String("component", "server")),
	}
}

// Start listens until the server fails or is shut down.
func (s *Server) Start() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
