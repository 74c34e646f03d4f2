package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/auth"
	"github.com/vovakirdan/ballrelay/internal/config"
	"github.com/vovakirdan/ballrelay/internal/core"
	"github.com/vovakirdan/ballrelay/internal/store"
)

// NewServer builds the HTTP server: the WebSocket endpoint, health and
// metrics, and the token and inspection API. st may be nil.
func NewServer(hub *core.Hub, authService *auth.Service, st store.ConnectionStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(hub, authService, st, logger)

	router.GET("/health", api.Health)
	router.GET("/metrics", api.Metrics)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg, logger)))

	router.POST("/api/token", api.Token)
	protected := router.Group("/api", AuthMiddleware(authService, logger))
	{
		protected.GET("/clients", api.Clients)
		protected.GET("/connections", api.Connections)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
