package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/store"
)

// Options tune per-session behavior.
type Options struct {
	// QueueLimit caps each client's mailbox; 0 means unbounded.
	QueueLimit int
	// RateLimit caps inbound frames per second per client; 0 disables it.
	RateLimit int
}

// Peer describes the remote end of a connection as seen by the transport.
type Peer struct {
	ConnID string
	Remote string
	Player string
}

// Hub owns the registry and spawns a session per accepted connection.
type Hub struct {
	registry    *Registry
	broadcaster *Broadcaster
	ids         IDSequence
	stats       *Stats
	store       store.ConnectionStore
	opts        Options
	log         *zerolog.Logger
}

// NewHub creates a hub. st may be nil to disable the connection journal and
// logger may be nil to discard logs.
func NewHub(st store.ConnectionStore, logger *zerolog.Logger, opts Options) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	stats := &Stats{}
	registry := NewRegistry()
	return &Hub{
		registry:    registry,
		broadcaster: NewBroadcaster(registry, stats, logger),
		stats:       stats,
		store:       st,
		opts:        opts,
		log:         logger,
	}
}

// Serve allocates an id for an established transport and runs its session
// until the connection ends. Errors are local to this connection.
func (h *Hub) Serve(ctx context.Context, t Transport, peer Peer) error {
	id, err := h.ids.Next()
	if err != nil {
		h.log.Error().Err(err).Str("remote", peer.Remote).Msg("reject connection")
		return err
	}
	if peer.ConnID == "" {
		peer.ConnID = uuid.NewString()
	}

	sess := h.newSession(id, t, peer)
	h.stats.Connections.Add(1)
	sess.log.Info().Str("remote", peer.Remote).Str("player", peer.Player).Msg("client connected")

	h.journalConnect(ctx, sess)
	err = sess.Run(ctx)
	h.journalDisconnect(ctx, sess, err)

	if err != nil {
		sess.log.Warn().Err(err).Uint64("frames_in", sess.FramesIn()).Msg("client disconnected with error")
		return err
	}
	sess.log.Info().Uint64("frames_in", sess.FramesIn()).Msg("client disconnected")
	return nil
}

func (h *Hub) newSession(id ClientID, t Transport, peer Peer) *Session {
	return &Session{
		id:          id,
		peer:        peer,
		transport:   t,
		mailbox:     NewMailbox(h.opts.QueueLimit),
		registry:    h.registry,
		broadcaster: h.broadcaster,
		stats:       h.stats,
		limiter:     newRateLimiter(h.opts.RateLimit),
		log: h.log.With().
			Uint32("client_id", uint32(id)).
			Str("conn_id", peer.ConnID).
			Logger(),
	}
}

// Clients returns the ids of currently registered clients.
func (h *Hub) Clients() []ClientID { return h.registry.IDs() }

// Metrics returns a snapshot of the relay counters.
func (h *Hub) Metrics() StatsSnapshot {
	snap := h.stats.Snapshot()
	snap.Active = h.registry.Len()
	return snap
}

func (h *Hub) journalConnect(ctx context.Context, sess *Session) {
	if h.store == nil {
		return
	}
	err := h.store.RecordConnect(ctx, &store.Connection{
		ConnID:      sess.peer.ConnID,
		ClientID:    uint32(sess.id),
		Remote:      sess.peer.Remote,
		Player:      sess.peer.Player,
		ConnectedAt: time.Now().UTC(),
	})
	if err != nil {
		sess.log.Warn().Err(err).Msg("journal connect")
	}
}

func (h *Hub) journalDisconnect(ctx context.Context, sess *Session, runErr error) {
	if h.store == nil {
		return
	}
	reason := "closed"
	if runErr != nil {
		reason = runErr.Error()
	}
	// The request context is usually gone by now.
	ctx = context.WithoutCancel(ctx)
	if err := h.store.RecordDisconnect(ctx, sess.peer.ConnID, time.Now().UTC(), sess.FramesIn(), reason); err != nil {
		sess.log.Warn().Err(err).Msg("journal disconnect")
	}
}
