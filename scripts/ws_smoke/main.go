package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/ballrelay/internal/log"
	"github.com/vovakirdan/ballrelay/internal/proto"
)

func main() {
	logger := log.New("info", "")
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("ws_smoke failed")
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "join token, when the server requires one")
	x := flag.Float64("x", 1.5, "x position to report")
	y := flag.Float64("y", 2.0, "y position to report")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target, err := dialURL(*addr, *token)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	first, err := read(ctx, conn)
	if err != nil {
		return err
	}
	fmt.Printf("Received %s %+v\n", first.Tag(), first)

	frame, err := proto.EncodeInbound(proto.Move{X: *x, Y: *y})
	if err != nil {
		return fmt.Errorf("encode move: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Printf("Sent Move x=%.2f y=%.2f (% x)\n", *x, *y, frame)

	// Print whatever other clients send until the timeout.
	for {
		msg, err := read(ctx, conn)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Received %s %+v\n", msg.Tag(), msg)
	}
}

func read(ctx context.Context, conn *websocket.Conn) (proto.Outbound, error) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read: %w", err)
		}
		if typ != websocket.MessageBinary {
			continue
		}
		msg, err := proto.DecodeOutbound(data)
		if err != nil {
			fmt.Printf("Undecodable frame (% x): %v\n", data, err)
			continue
		}
		return msg, nil
	}
}

func dialURL(addr, token string) (string, error) {
	if token == "" {
		return addr, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse addr: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
