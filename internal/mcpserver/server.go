package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/parchlabs/sitesmith/internal/deploy"
	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/project"
)

// Server manages an embedded MCP HTTP server that exposes the project file
// store and deployment as tools. External agents connect over streamable
// HTTP instead of shelling out to the CLI.
type Server struct {
	store    *project.Store
	deployer *deploy.Client // nil when no deploy endpoint is configured
	projName string

	mu         sync.Mutex
	mcpServer  *server.MCPServer
	httpServer *http.Server
	port       int
}

// New creates an MCP server for one project. Nothing listens until Start.
func New(store *project.Store, deployer *deploy.Client, projectName string) *Server {
	return &Server{
		store:    store,
		deployer: deployer,
		projName: projectName,
	}
}

// Start brings the server up on a random loopback port and returns it.
// The listener is opened before the port is reported, so the endpoint
// accepts connections as soon as Start returns.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	s.mcpServer = server.NewMCPServer(
		"sitesmith-tools",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	if err := s.registerTools(); err != nil {
		return 0, fmt.Errorf("failed to register tools: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find available port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	))
	s.httpServer = &http.Server{
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// Serve on the goroutine with a captured reference so a concurrent Stop
	// can't nil the field out from under it.
	srv := s.httpServer
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("MCP server error: %v", err)
		}
	}()

	logger.Debug("MCP server for project %s ready on port %d", s.projName, s.port)
	return s.port, nil
}

// Stop shuts the server down. Safe to call more than once.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.httpServer = nil
	s.mcpServer = nil
	logger.Debug("MCP server stopped")
	return nil
}

// URL returns the HTTP endpoint agents should connect to.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
