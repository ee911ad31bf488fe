package webapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otherjamesbrown/postmeet/pkg/logging"
)

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Addr is the listen address, e.g. 127.0.0.1:8484.
	Addr string

	// Registry serves /metrics when set.
	Registry *prometheus.Registry

	Logger logging.Logger
}

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg ServerConfig, handlers *Handlers) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handlers.HandleHealth)
	mux.HandleFunc("GET /api/polling/status", handlers.HandlePollingStatus)
	mux.HandleFunc("POST /api/polling/start", handlers.HandlePollingStart)
	mux.HandleFunc("POST /api/polling/stop", handlers.HandlePollingStop)
	mux.HandleFunc("POST /api/notetaker/toggle", handlers.HandleToggleNotetaker)
	if cfg.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	return &Server{
		logger: logger,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("HTTP server starting", logging.F("address", s.srv.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", logging.Err(err))
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
