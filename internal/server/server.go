// Package server exposes the knowledge graph over HTTP: the JSON REST
// API, the MCP transport, the assistant chat endpoint, the Prometheus
// metrics endpoint and the embedded browser UI. All protocol surfaces
// go through the same api.Service facade, so they share one contract.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/api"
	"github.com/jakobengdahl/CommunityOverview-sub001/internal/assistant"
	"github.com/jakobengdahl/CommunityOverview-sub001/internal/server/ui"
)

// Options configures a Server.
type Options struct {
	// Listen is the bind address, ":8080" when empty.
	Listen string
	// AuthToken protects everything except /healthz and /metrics.
	// Empty leaves the server open.
	AuthToken string
	// API is the shared operation facade. Required.
	API *api.Service
	// Assistant drives the chat endpoints. May be nil; the endpoints
	// then answer 503.
	Assistant *assistant.Orchestrator
	// MCP is the mounted MCP transport handler. May be nil; /mcp then
	// falls through to a 404.
	MCP http.Handler
}

// Server holds the HTTP interface over the shared service facade.
type Server struct {
	api       *api.Service
	assistant *assistant.Orchestrator
	mcp       http.Handler
	tasks     *TaskManager
	authToken string

	root       http.Handler
	httpServer *http.Server
}

// NewServer assembles the HTTP stack. The store behind opts.API must
// already be open; the server only routes to it.
func NewServer(opts Options) (*Server, error) {
	if opts.API == nil {
		return nil, errors.New("server: Options.API is required")
	}
	if opts.Listen == "" {
		opts.Listen = ":8080"
	}

	s := &Server{
		api:       opts.API,
		assistant: opts.Assistant,
		mcp:       opts.MCP,
		tasks:     NewTaskManager(),
		authToken: opts.AuthToken,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Chain middlewares: Recovery -> Logging -> Auth -> Mux
	// Order matters! Recovery must be outer-most to catch everything.

	var handler http.Handler = mux

	// 1. Auth (Inner)
	handler = s.authMiddleware(handler)

	// 2. Logging (Middle) - Logs duration and status
	handler = s.LoggingMiddleware(handler)

	// 3. Recovery (Outer) - Catches panics
	handler = s.RecoveryMiddleware(handler)

	// Health and metrics stay reachable without a token so probes and
	// scrapers need no credentials.
	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", promhttp.Handler())
	rootMux.Handle("/", handler)

	s.root = rootMux
	s.httpServer = &http.Server{
		Addr:    opts.Listen,
		Handler: rootMux,
	}

	return s, nil
}

// registerRoutes wires every endpoint onto the authenticated mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Knowledge graph API
	mux.HandleFunc("POST /api/nodes/search", s.handleSearch)
	mux.HandleFunc("POST /api/nodes", s.handleAddNodes)
	mux.HandleFunc("POST /api/nodes/delete", s.handleDeleteNodes)
	mux.HandleFunc("GET /api/nodes/{id}", s.handleGetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", s.handleUpdateNode)
	mux.HandleFunc("GET /api/nodes/{id}/related", s.handleRelated)
	mux.HandleFunc("GET /api/nodes/{id}/edges", s.handleNodeEdges)
	mux.HandleFunc("POST /api/edges/between", s.handleEdgesBetween)
	mux.HandleFunc("POST /api/similar", s.handleSimilar)
	mux.HandleFunc("POST /api/similar/batch", s.handleSimilarBatch)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	// Document text extraction
	mux.HandleFunc("POST /api/documents/extract", s.handleExtract)

	// Assistant chat
	mux.HandleFunc("POST /api/assistant/chat", s.handleAssistantChat)
	mux.HandleFunc("GET /api/assistant/tools", s.handleAssistantTools)

	// Maintenance
	mux.HandleFunc("POST /api/admin/reindex", s.handleReindex)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)

	// Unknown API paths answer JSON, not the UI fallback.
	mux.HandleFunc("/api/", s.handleAPINotFound)

	// Debug endpoints (pprof)
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)

	// MCP transport
	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
		mux.Handle("/mcp/", s.mcp)
	}

	// Embedded browser UI at the web root
	mux.Handle("/", ui.Handler())
}

// Handler returns the fully assembled root handler. Tests mount it on an
// httptest server instead of binding a real port.
func (s *Server) Handler() http.Handler {
	return s.root
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully. It does NOT close the
// graph store; main handles that for proper lifecycle ordering.
func (s *Server) Shutdown() {
	slog.Info("Starting graceful shutdown of HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}
