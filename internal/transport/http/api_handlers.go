package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/auth"
	"github.com/vovakirdan/ballrelay/internal/core"
	"github.com/vovakirdan/ballrelay/internal/store"
)

const (
	defaultConnectionsLimit = 50
	maxConnectionsLimit     = 500
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub         *core.Hub
	authService *auth.Service
	store       store.ConnectionStore
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. st may be nil when the
// connection journal is disabled.
func NewAPIHandlers(hub *core.Hub, authService *auth.Service, st store.ConnectionStore, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:         hub,
		authService: authService,
		store:       st,
		log:         logger,
	}
}

// TokenRequest represents the token request body.
type TokenRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password"`
}

// TokenResponse represents the token response body.
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Token issues a join token.
// POST /api/token
func (h *APIHandlers) Token(c *gin.Context) {
	if !h.authService.Enabled() {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "auth disabled"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid token request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Issue(req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid player name"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		default:
			h.log.Error().Err(err).Str("player", req.Name).Msg("failed to issue token")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("player", req.Name).Msg("token issued")
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Clients lists currently registered client ids.
// GET /api/clients
func (h *APIHandlers) Clients(c *gin.Context) {
	c.JSON(http.StatusOK, clientsToResponse(h.hub.Clients()))
}

// Connections lists recent connection journal rows.
// GET /api/connections?limit=N
func (h *APIHandlers) Connections(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "connection journal disabled"})
		return
	}

	limit := defaultConnectionsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxConnectionsLimit)
	}

	conns, err := h.store.RecentConnections(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list connections")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		resp = append(resp, connectionToResponse(conn))
	}
	c.JSON(http.StatusOK, resp)
}

// Metrics returns relay counters.
// GET /metrics
func (h *APIHandlers) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Metrics())
}

// Health reports liveness.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
