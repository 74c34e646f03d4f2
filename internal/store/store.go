package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a journal row does not exist.
var ErrNotFound = errors.New("not found")

// Connection is one row of the connection journal: who connected, under
// which client id, and how the connection ended. It holds no game state.
type Connection struct {
	ConnID         string
	ClientID       uint32
	Remote         string
	Player         string
	ConnectedAt    time.Time
	DisconnectedAt *time.Time
	FramesIn       uint64
	CloseReason    string
}

// ConnectionStore records connection lifecycle events.
type ConnectionStore interface {
	// RecordConnect inserts a journal row for a newly registered client.
	RecordConnect(ctx context.Context, conn *Connection) error
	// RecordDisconnect completes the row identified by connID.
	RecordDisconnect(ctx context.Context, connID string, at time.Time, framesIn uint64, reason string) error
	// RecentConnections lists the newest rows first.
	RecentConnections(ctx context.Context, limit int) ([]Connection, error)
}

// Store is the full persistence interface.
type Store interface {
	ConnectionStore
	Close() error
}
