package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/proto"
)

// maxLoggedBytes bounds the hex dump of a frame in log lines.
const maxLoggedBytes = 32

// Transport is one established connection. ReadFrame returns io.EOF when the
// peer closed the connection normally.
type Transport interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, frame []byte) error
}

// State is the lifecycle stage of a session.
type State int32

const (
	StateConnecting State = iota
	StateRegistered
	StateStreaming
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session bridges one transport and the registry. It runs a read loop and a
// write loop that share nothing but the session's mailbox.
type Session struct {
	id          ClientID
	peer        Peer
	transport   Transport
	mailbox     *Mailbox
	registry    *Registry
	broadcaster *Broadcaster
	stats       *Stats
	limiter     *rateLimiter
	log         zerolog.Logger

	state    atomic.Int32
	framesIn atomic.Uint64
}

// ID returns the session's client id.
func (s *Session) ID() ClientID { return s.id }

// State returns the current lifecycle stage.
func (s *Session) State() State { return State(s.state.Load()) }

// FramesIn returns how many frames were read from the transport.
func (s *Session) FramesIn() uint64 { return s.framesIn.Load() }

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.log.Debug().Stringer("state", st).Msg("session state")
}

// Run registers the client, streams until the transport fails or ctx is
// cancelled, then unregisters and announces the departure. A normal close by
// the peer returns nil.
func (s *Session) Run(ctx context.Context) error {
	// Init is queued while the mailbox is still private, so no broadcast can
	// get ahead of it.
	if err := s.send(proto.Init{ID: uint32(s.id)}); err != nil {
		s.mailbox.Close()
		s.setState(StateClosed)
		return fmt.Errorf("queue init for client %d: %w", s.id, err)
	}

	if err := s.registry.Register(s.id, s.mailbox); err != nil {
		// Never registered: there is nothing to tear down, so Closing is skipped.
		s.mailbox.Close()
		s.log.Warn().Err(err).Msg("register rejected")
		s.setState(StateClosed)
		return fmt.Errorf("register client %d: %w", s.id, err)
	}
	s.setState(StateRegistered)

	if _, err := s.broadcaster.Broadcast(s.id, proto.Joined{ID: uint32(s.id)}); err != nil {
		s.log.Error().Err(err).Msg("broadcast joined")
	}
	s.setState(StateStreaming)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.readLoop(ctx)
	}()
	go func() {
		errCh <- s.writeLoop(ctx)
	}()

	err := <-errCh
	cancel() // stop the other loop
	<-errCh

	s.close()

	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, ErrMailboxClosed) {
		return nil
	}
	return err
}

func (s *Session) close() {
	s.setState(StateClosing)

	s.registry.Unregister(s.id)
	if _, err := s.broadcaster.Broadcast(s.id, proto.Left{ID: uint32(s.id)}); err != nil {
		s.log.Error().Err(err).Msg("broadcast left")
	}
	s.mailbox.Close()

	s.setState(StateClosed)
}

func (s *Session) send(msg proto.Outbound) error {
	frame, err := proto.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Tag(), err)
	}
	return s.mailbox.Push(frame)
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		frame, err := s.transport.ReadFrame(ctx)
		if err != nil {
			return err
		}
		s.framesIn.Add(1)
		s.stats.FramesIn.Add(1)

		if !s.limiter.allow(time.Now()) {
			s.stats.RateLimited.Add(1)
			s.log.Debug().Int("size", len(frame)).Msg("frame rate limited")
			continue
		}

		s.handleFrame(frame)
	}
}

func (s *Session) handleFrame(frame []byte) {
	msg, err := proto.Decode(frame)
	if err != nil {
		s.stats.DecodeFailures.Add(1)
		s.log.Warn().
			Err(err).
			Int("size", len(frame)).
			Hex("raw", head(frame)).
			Msg("drop malformed frame")
		return
	}

	var out proto.Outbound
	switch m := msg.(type) {
	case proto.Move:
		out = proto.PlayerMove{ID: uint32(s.id), X: m.X, Y: m.Y, VelX: m.VelX, VelY: m.VelY}
	case proto.KickInput:
		out = proto.Kick{ID: uint32(s.id), X: m.X, Y: m.Y, DirX: m.DirX, DirY: m.DirY}
	default:
		s.log.Error().Str("tag", msg.Tag()).Msg("no relay for inbound message")
		return
	}

	s.log.Debug().Str("tag", msg.Tag()).Hex("raw", head(frame)).Msg("relay")
	if _, err := s.broadcaster.Broadcast(s.id, out); err != nil {
		s.log.Error().Err(err).Msg("broadcast relay")
	}
}

func (s *Session) writeLoop(ctx context.Context) error {
	for {
		frame, err := s.mailbox.Pop(ctx)
		if err != nil {
			return err
		}
		if err := s.transport.WriteFrame(ctx, frame); err != nil {
			return err
		}
	}
}

func head(frame []byte) []byte {
	if len(frame) > maxLoggedBytes {
		return frame[:maxLoggedBytes]
	}
	return frame
}
