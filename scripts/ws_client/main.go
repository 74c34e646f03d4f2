package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/log"
	"github.com/vovakirdan/ballrelay/internal/proto"
)

const usage = `Commands:
  move <x> <y> <vel_x> <vel_y>
  kick <x> <y> <dir_x> <dir_y>
Ctrl+C to exit.`

func main() {
	logger := log.New("info", "")
	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("ws_client failed")
		os.Exit(1)
	}
}

func run(logger *zerolog.Logger) error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "join token, when the server requires one")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	target := *addr
	if *token != "" {
		u, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("parse addr: %w", err)
		}
		q := u.Query()
		q.Set("token", *token)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s\n%s\n", *addr, usage)

	go func() {
		defer cancel()
		readLoop(ctx, conn, logger)
	}()

	writeLoop(ctx, conn, logger)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, logger *zerolog.Logger) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			logger.Error().Err(err).Msg("read error")
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}

		msg, err := proto.DecodeOutbound(data)
		if err != nil {
			logger.Warn().Err(err).Hex("raw", data).Msg("undecodable frame")
			continue
		}

		switch m := msg.(type) {
		case proto.Init:
			fmt.Printf("you are client %d\n", m.ID)
		case proto.Joined:
			fmt.Printf("client %d joined\n", m.ID)
		case proto.Left:
			fmt.Printf("client %d left\n", m.ID)
		case proto.PlayerMove:
			fmt.Printf("client %d at (%.2f, %.2f) vel (%.2f, %.2f)\n", m.ID, m.X, m.Y, m.VelX, m.VelY)
		case proto.Kick:
			fmt.Printf("client %d kicked at (%.2f, %.2f) dir (%.2f, %.2f)\n", m.ID, m.X, m.Y, m.DirX, m.DirY)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, logger *zerolog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			msg, err := parseCommand(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if msg == nil {
				continue
			}

			frame, err := proto.EncodeInbound(msg)
			if err != nil {
				logger.Error().Err(err).Msg("encode")
				return
			}
			if err := conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
				logger.Error().Err(err).Msg("send error")
				return
			}
		}
	}
}

func parseCommand(line string) (proto.Inbound, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) != 5 {
		return nil, errors.New(usage)
	}

	var v [4]float64
	for i, f := range fields[1:] {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		v[i] = n
	}

	switch strings.ToLower(fields[0]) {
	case "move":
		return proto.Move{X: v[0], Y: v[1], VelX: v[2], VelY: v[3]}, nil
	case "kick":
		return proto.KickInput{X: v[0], Y: v[1], DirX: v[2], DirY: v[3]}, nil
	default:
		return nil, errors.New(usage)
	}
}
