// Package server provides the HTTP API for Kioku.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/search"
	"go.uber.org/zap"
)

// answerTimeout bounds a request; local completion models can take a while.
const answerTimeout = 5 * time.Minute

// Server is the HTTP server for the Kioku API.
type Server struct {
	engine *search.Engine
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(engine *search.Engine, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// Router returns the API routes with middleware applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(answerTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/notes", s.handleAddNote)
		r.Get("/notes", s.handleListNotes)
		r.Delete("/notes/{id}", s.handleDeleteNote)
		r.Post("/answer", s.handleAnswer)
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
