package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/auth"
	"github.com/vovakirdan/ballrelay/internal/config"
	"github.com/vovakirdan/ballrelay/internal/core"
)

// maxCloseReason is the longest close reason a control frame can carry.
const maxCloseReason = 123

// WSHandler upgrades HTTP connections and hands them to the hub.
type WSHandler struct {
	hub         *core.Hub
	authService *auth.Service
	cfg         *config.Config
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, authService: authService, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	player, ok := h.authorize(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxFrameBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxFrameBytes)
	}

	peer := core.Peer{
		ConnID: uuid.NewString(),
		Remote: r.RemoteAddr,
		Player: player,
	}
	err = h.hub.Serve(r.Context(), &wsTransport{conn: conn, log: h.log}, peer)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil {
		status = websocket.StatusInternalError
		if errors.Is(err, core.ErrIDsExhausted) {
			status = websocket.StatusTryAgainLater
		}
		reason = err.Error()
		if len(reason) > maxCloseReason {
			reason = reason[:maxCloseReason]
		}
	}
	// The peer may already be gone.
	_ = conn.Close(status, reason)
}

// authorize checks the ?token= query parameter when auth is enabled and
// returns the player name it carries.
func (h *WSHandler) authorize(w stdhttp.ResponseWriter, r *stdhttp.Request) (string, bool) {
	if !h.authService.Enabled() {
		return "", true
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		h.log.Debug().Str("remote", r.RemoteAddr).Msg("ws missing token")
		stdhttp.Error(w, "missing token", stdhttp.StatusUnauthorized)
		return "", false
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws invalid token")
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return "", false
	}
	return claims.Player, true
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if len(h.cfg.AllowedOrigins) > 0 {
		return &websocket.AcceptOptions{OriginPatterns: h.cfg.AllowedOrigins}
	}
	return &websocket.AcceptOptions{InsecureSkipVerify: true}
}

// wsTransport adapts a WebSocket connection to core.Transport. Only binary
// messages carry frames; text messages are skipped.
type wsTransport struct {
	conn *websocket.Conn
	log  *zerolog.Logger
}

func (t *wsTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := t.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil, io.EOF
			}
			return nil, err
		}
		if typ != websocket.MessageBinary {
			t.log.Debug().Int("size", len(data)).Msg("ignore text message")
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) WriteFrame(ctx context.Context, frame []byte) error {
	return t.conn.Write(ctx, websocket.MessageBinary, frame)
}
