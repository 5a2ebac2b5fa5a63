package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cose-ai/backend/internal/agent"
	"cose-ai/backend/internal/constants"
	"cose-ai/backend/pkg/logger"
)

// ChatService is the part of the agent orchestrator the HTTP layer needs
type ChatService interface {
	RunTurn(ctx context.Context, sessionID, message string) (*agent.TurnResult, error)
	AddKnowledge(ctx context.Context, content, source string) error
}

// Options configures the router
type Options struct {
	CORSOrigins []string
	Release     bool
}

// Server holds the handlers' dependencies
type Server struct {
	chat   ChatService
	logger *zap.Logger
}

// NewRouter builds the gin engine with middleware and all routes registered
func NewRouter(chat ChatService, opts Options) *gin.Engine {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		chat:   chat,
		logger: logger.Named("api"),
	}

	router := gin.New()
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(opts.CORSOrigins))

	router.GET("/", s.handleRoot)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.POST("/add-knowledge", s.handleAddKnowledge)
	}

	return router
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  constants.ServiceStatus,
		"version": constants.ServiceVersion,
	})
}
