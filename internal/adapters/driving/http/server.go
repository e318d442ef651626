// Package http serves the query pipeline over a JSON HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// shutdownTimeout bounds graceful shutdown once Run's context is cancelled.
const shutdownTimeout = 30 * time.Second

// Services groups the driving ports the server exposes.
// Routes are only registered for the services that are set.
type Services struct {
	RAG           driving.RAGEngine
	Agent         driving.AgentEngine
	Orchestrator  driving.Orchestrator
	Transcription driving.TranscriptionService
	Search        driving.SearchService
	Document      driving.DocumentService
}

// Config holds server configuration.
type Config struct {
	Addr    string
	Version string

	// WriteTimeout must outlast the slowest branch of an orchestrated query.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         domain.DefaultHTTPAddr,
		Version:      "dev",
		WriteTimeout: 2*domain.DefaultBranchTimeout + 30*time.Second,
	}
}

// Server is the HTTP API.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	svc        Services
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, svc Services) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	s := &Server{
		router:  http.NewServeMux(),
		version: cfg.Version,
		svc:     svc,
	}
	s.setupRoutes()

	handler := NewRecoveryMiddleware().Handler(NewLoggingMiddleware().Handler(s.router))
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	if s.svc.RAG != nil {
		s.router.HandleFunc("POST /rag", s.handleRAG)
	}
	if s.svc.Agent != nil {
		s.router.HandleFunc("POST /agent", s.handleAgent)
	}
	if s.svc.Orchestrator != nil {
		s.router.HandleFunc("POST /ask", s.handleAsk)
		s.router.HandleFunc("GET /interactions", s.handleRecentInteractions)
		s.router.HandleFunc("GET /interactions/{id}", s.handleInteractions)
	}
	if s.svc.Transcription != nil {
		s.router.HandleFunc("POST /transcribe", s.handleTranscribe)
		s.router.HandleFunc("GET /languages", s.handleLanguages)
	}
	if s.svc.Search != nil {
		s.router.HandleFunc("GET /search", s.handleSearch)
	}
	if s.svc.Document != nil {
		s.router.HandleFunc("GET /documents", s.handleListDocuments)
		s.router.HandleFunc("DELETE /documents/{name}", s.handleDeleteDocument)
	}
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Slog().Info("http server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Stop stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
