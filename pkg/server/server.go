// Package server hosts the JSON/HTTP rendering API.
//
// A single shared pipeline runner (and through it a single shared
// browser) serves all requests; concurrent requests get isolated page
// sessions inside that browser.
//
// Endpoints:
//
//	POST /api/render   render a diagram batch, returns settled outcomes
//	GET  /healthz      liveness probe
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/vennkit/vennkit/pkg/pipeline"
)

// Config controls the HTTP server behavior.
type Config struct {
	BindAddress string // Defaults to 127.0.0.1:8410
	Version     string // Reported by /healthz

	// MaxBatchSize caps diagrams per request. 0 means DefaultMaxBatchSize.
	MaxBatchSize int

	// RequestTimeout bounds one render request end to end.
	// 0 means DefaultRequestTimeout.
	RequestTimeout time.Duration
}

const (
	DefaultBindAddress    = "127.0.0.1:8410"
	DefaultMaxBatchSize   = 64
	DefaultRequestTimeout = 2 * time.Minute
)

// Server hosts the rendering API on top of a pipeline runner.
type Server struct {
	cfg        Config
	runner     *pipeline.Runner
	log        *log.Logger
	httpServer *http.Server
}

// NewServer constructs a server. The runner is required; a nil logger
// uses log.Default().
func NewServer(cfg Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	if cfg.BindAddress == "" {
		cfg.BindAddress = DefaultBindAddress
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, runner: runner, log: logger}
}

// Router builds the chi router with all routes and middleware attached.
// Exposed for httptest.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/render", s.handleRender)

	return r
}

// Start runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.BindAddress,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.BindAddress)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
