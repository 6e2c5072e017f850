package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/common"
	"github.com/ternarybob/brokercalls/internal/handlers"
)

// Server manages the HTTP server and routes
type Server struct {
	config          *common.Config
	logger          arbor.ILogger
	api             *handlers.APIHandler
	recommendations *handlers.RecommendationHandler
	router          *http.ServeMux
	server          *http.Server
}

// New creates a new HTTP server wired to the recommendation source
func New(config *common.Config, source handlers.RecommendationSource, logger arbor.ILogger) *Server {
	s := &Server{
		config:          config,
		logger:          logger,
		api:             handlers.NewAPIHandler(),
		recommendations: handlers.NewRecommendationHandler(source, logger),
	}

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.withMiddleware(s.router),
		ReadTimeout: 15 * time.Second,
		// No write timeout: a request's scrape walks the full acquisition
		// cascade and has no overall deadline, only per-call ones.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// Handler exposes the fully wrapped handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
