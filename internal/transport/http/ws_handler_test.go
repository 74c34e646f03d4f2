package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/auth"
	"github.com/vovakirdan/ballrelay/internal/config"
	"github.com/vovakirdan/ballrelay/internal/core"
	"github.com/vovakirdan/ballrelay/internal/proto"
	"github.com/vovakirdan/ballrelay/internal/store"
)

type testServer struct {
	*httptest.Server
	hub         *core.Hub
	authService *auth.Service
}

func startTestServer(t *testing.T, cfg config.Config, st store.ConnectionStore) *testServer {
	t.Helper()

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(st, &disabledLogger, core.Options{QueueLimit: cfg.QueueLimit, RateLimit: cfg.RateLimit})
	authService := auth.NewService(&auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Minute,
	}, cfg.JoinPasswordHash)

	server := NewServer(hub, authService, st, &cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, hub: hub, authService: authService}
}

func testConfig() config.Config {
	return config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		MaxFrameBytes:     1 << 16,
	}
}

func wsURL(ts *testServer, query string) string {
	u := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readMsg(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageBinary {
		t.Fatalf("expected binary message, got %v", typ)
	}
	msg, err := proto.DecodeOutbound(data)
	if err != nil {
		t.Fatalf("decode % x: %v", data, err)
	}
	return msg
}

func sendMsg(t *testing.T, ctx context.Context, conn *websocket.Conn, msg proto.Inbound) {
	t.Helper()

	frame, err := proto.EncodeInbound(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRelay(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, wsURL(ts, ""))
	if got := readMsg(t, ctx, a); got != (proto.Init{ID: 0}) {
		t.Fatalf("a: expected Init{0}, got %+v", got)
	}

	b := dial(t, ctx, wsURL(ts, ""))
	if got := readMsg(t, ctx, b); got != (proto.Init{ID: 1}) {
		t.Fatalf("b: expected Init{1}, got %+v", got)
	}
	if got := readMsg(t, ctx, a); got != (proto.Joined{ID: 1}) {
		t.Fatalf("a: expected Joined{1}, got %+v", got)
	}

	sendMsg(t, ctx, b, proto.Move{X: 1.5, Y: 2.0, VelX: 0.1, VelY: 0.0})
	want := proto.PlayerMove{ID: 1, X: 1.5, Y: 2.0, VelX: 0.1, VelY: 0.0}
	if got := readMsg(t, ctx, a); got != want {
		t.Fatalf("a: expected %+v, got %+v", want, got)
	}

	sendMsg(t, ctx, a, proto.KickInput{X: 3, Y: 4, DirX: 1, DirY: 0})
	wantKick := proto.Kick{ID: 0, X: 3, Y: 4, DirX: 1, DirY: 0}
	if got := readMsg(t, ctx, b); got != wantKick {
		t.Fatalf("b: expected %+v, got %+v", wantKick, got)
	}

	if err := b.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		t.Fatalf("close b: %v", err)
	}
	if got := readMsg(t, ctx, a); got != (proto.Left{ID: 1}) {
		t.Fatalf("a: expected Left{1}, got %+v", got)
	}
}

func TestWebSocketIgnoresTextAndMalformedFrames(t *testing.T) {
	ts := startTestServer(t, testConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, wsURL(ts, ""))
	readMsg(t, ctx, a) // Init
	b := dial(t, ctx, wsURL(ts, ""))
	readMsg(t, ctx, b) // Init
	readMsg(t, ctx, a) // Joined

	if err := b.Write(ctx, websocket.MessageText, []byte(`{"type":"Move"}`)); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if err := b.Write(ctx, websocket.MessageBinary, []byte{0x93, 0xc0}); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	sendMsg(t, ctx, b, proto.Move{X: 9})

	// The first frame a sees is the valid move.
	if got := readMsg(t, ctx, a); got != (proto.PlayerMove{ID: 1, X: 9}) {
		t.Fatalf("a: expected PlayerMove from b, got %+v", got)
	}

	m := ts.hub.Metrics()
	if m.DecodeFailures != 1 {
		t.Fatalf("expected 1 decode failure, got %d", m.DecodeFailures)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "testsecret"
	cfg.JWTIssuer = "test"
	cfg.JWTAudience = "test"
	ts := startTestServer(t, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for name, query := range map[string]string{
		"missing": "",
		"invalid": "token=not-a-token",
	} {
		_, resp, err := websocket.Dial(ctx, wsURL(ts, query), nil)
		if err == nil {
			t.Fatalf("%s: expected dial to fail", name)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %+v", name, resp)
		}
	}
	if n := len(ts.hub.Clients()); n != 0 {
		t.Fatalf("expected no registered clients, got %d", n)
	}

	token, err := ts.authService.Issue("alice", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	conn := dial(t, ctx, wsURL(ts, "token="+token))
	if got := readMsg(t, ctx, conn); got != (proto.Init{ID: 0}) {
		t.Fatalf("expected Init{0}, got %+v", got)
	}
}
