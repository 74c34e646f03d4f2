package core

import (
	"context"
	"testing"

	"github.com/vovakirdan/ballrelay/internal/proto"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, nil, Options{})
	frame, err := proto.Encode(proto.PlayerMove{ID: 0, X: 1.5, Y: 2, VelX: 0.1})
	if err != nil {
		b.Fatalf("encode: %v", err)
	}

	mailboxes := make([]*Mailbox, 0, recipients)
	for i := range recipients {
		mb := NewMailbox(0)
		if err := hub.registry.Register(ClientID(i+1), mb); err != nil {
			b.Fatalf("register: %v", err)
		}
		mailboxes = append(mailboxes, mb)
	}

	// Drain every mailbox but the first to keep queues short.
	target := mailboxes[0]
	for _, mb := range mailboxes[1:] {
		go func(m *Mailbox) {
			for {
				if _, err := m.Pop(ctx); err != nil {
					return
				}
			}
		}(mb)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.broadcaster.BroadcastFrame(0, frame)
		if _, err := target.Pop(ctx); err != nil {
			b.Fatalf("pop: %v", err)
		}
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
