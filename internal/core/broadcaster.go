package core

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ballrelay/internal/proto"
)

// Broadcaster fans a message out to every registered client but the sender.
// It is the only path by which Joined, Left, PlayerMove and Kick reach peers.
type Broadcaster struct {
	registry *Registry
	stats    *Stats
	log      *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over registry.
func NewBroadcaster(registry *Registry, stats *Stats, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, stats: stats, log: logger}
}

// Broadcast encodes msg and delivers it to everyone except from.
func (b *Broadcaster) Broadcast(from ClientID, msg proto.Outbound) (Delivery, error) {
	frame, err := proto.Encode(msg)
	if err != nil {
		return Delivery{}, fmt.Errorf("encode %s: %w", msg.Tag(), err)
	}
	return b.BroadcastFrame(from, frame), nil
}

// BroadcastFrame delivers an already encoded frame to everyone except from.
// Clients that are tearing down are skipped silently.
func (b *Broadcaster) BroadcastFrame(from ClientID, frame []byte) Delivery {
	d := b.registry.SendExcept(from, frame)

	b.stats.Broadcasts.Add(1)
	b.stats.Deliveries.Add(uint64(d.Sent))
	if len(d.Dropped) > 0 {
		b.stats.DroppedDeliveries.Add(uint64(len(d.Dropped)))
		for _, id := range d.Dropped {
			b.log.Debug().Uint32("client_id", uint32(id)).Uint32("from", uint32(from)).Msg("delivery dropped")
		}
	}

	b.log.Debug().
		Uint32("from", uint32(from)).
		Int("sent", d.Sent).
		Int("dropped", len(d.Dropped)).
		Int("bytes", len(frame)).
		Msg("broadcast")
	return d
}
