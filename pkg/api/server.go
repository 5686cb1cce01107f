// Package api exposes the generation service over HTTP: submission,
// polling, live progress streaming, conversation retrieval, and
// cancellation.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/coordinator"
	"github.com/reelforge/reelforge/pkg/database"
	"github.com/reelforge/reelforge/pkg/models"
)

// Submitter accepts and cancels generations.
type Submitter interface {
	Submit(ctx context.Context, sub coordinator.Submission) (uuid.UUID, error)
	Cancel(id uuid.UUID) bool
}

// GenerationReader serves the polling and conversation endpoints.
type GenerationReader interface {
	GetGeneration(ctx context.Context, id string) (*models.Generation, error)
	GetConversation(ctx context.Context, id string) ([]models.AgentInteraction, error)
}

// Server is the HTTP API server.
type Server struct {
	cfg       *config.Config
	dbClient  *database.Client
	submitter Submitter
	reader    GenerationReader
	bus       *bus.Bus
	logger    *slog.Logger

	httpServer *http.Server
}

// NewServer wires the API server. The database client may be nil in
// tests; the health endpoint then skips the database check.
func NewServer(cfg *config.Config, dbClient *database.Client, submitter Submitter,
	reader GenerationReader, b *bus.Bus, logger *slog.Logger) *Server {

	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		dbClient:  dbClient,
		submitter: submitter,
		reader:    reader,
		bus:       b,
		logger:    logger.With("component", "api"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.healthHandler)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/generations", s.submitGenerationHandler)
		v1.GET("/generations/:id", s.getGenerationHandler)
		v1.GET("/generations/:id/stream", s.streamGenerationHandler)
		v1.GET("/generations/:id/conversation", s.getConversationHandler)
		v1.POST("/generations/:id/cancel", s.cancelGenerationHandler)
	}
	return r
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
