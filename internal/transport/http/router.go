package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/http/middleware"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/logging"
)

type RouterConfig struct {
	AllowedOrigins []string
	Tokens         middleware.TokenValidator
	Logger         *zap.Logger
}

// NewRouter wires every route. stream serves the WebSocket event feed and
// may be nil.
func NewRouter(cfg RouterConfig, players *PlayerHandler, games *GameHandler, stream gin.HandlerFunc) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger.Named("http")))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	router.POST("/api/players", players.Register)
	router.GET("/api/games/counts", games.Counts)

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.Tokens))
	{
		protected.GET("/players/me", players.Me)
		protected.PUT("/players/me/name", players.Rename)
		protected.GET("/players/me/stats", players.Stats)

		protected.POST("/games/match", games.RequestMatch)
		protected.GET("/games/:id", games.GetStatus)
		protected.POST("/games/:id/moves", games.SubmitMove)
		protected.POST("/games/:id/abandon", games.Abandon)
		protected.POST("/games/:id/advice", games.Advice)
	}

	// WebSocket route; the handler authenticates before upgrading
	if stream != nil {
		router.GET("/ws/games/:id", stream)
	}

	return router
}
