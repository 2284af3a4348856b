// Package httpapi exposes the project store and the build/fix engine over
// HTTP. Build and fix runs stream round-by-round progress as Server-Sent
// Events, so a web client renders the same feed the TUI shows.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/parchlabs/sitesmith/internal/deploy"
	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/orchestrator"
	"github.com/parchlabs/sitesmith/internal/project"
)

// StateLoader replays a project's event history into its current state. The
// project store implements it; tests substitute a stub.
type StateLoader interface {
	LoadState(ctx context.Context, project string) (*project.State, error)
}

// Config wires a Server.
type Config struct {
	Loader   StateLoader           // Required
	Engine   *orchestrator.Engine  // Required
	Deployer *deploy.Client        // Optional; deploy endpoint answers 503 without it
	Recorder orchestrator.Recorder // Optional; deployments are recorded when set
}

// Server serves the project API.
type Server struct {
	loader   StateLoader
	engine   *orchestrator.Engine
	deployer *deploy.Client
	rec      orchestrator.Recorder
	handler  http.Handler
	srv      *http.Server
}

// New creates a Server and mounts its routes.
func New(cfg Config) *Server {
	s := &Server{
		loader:   cfg.Loader,
		engine:   cfg.Engine,
		deployer: cfg.Deployer,
		rec:      cfg.Recorder,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/projects/{project}/files", s.handleFiles)
	mux.HandleFunc("POST /api/projects/{project}/build", s.handleBuild)
	mux.HandleFunc("POST /api/projects/{project}/fix", s.handleFix)
	mux.HandleFunc("POST /api/projects/{project}/deploy", s.handleDeploy)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}).Handler(mux)

	return s
}

// Handler returns the routed handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves on addr and blocks until the listener fails or Shutdown is
// called. SSE responses disable the write timeout; a build run legitimately
// holds its response open for minutes.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("HTTP API listening on %s", addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	logger.Info("HTTP API shutting down")
	return s.srv.Shutdown(ctx)
}
