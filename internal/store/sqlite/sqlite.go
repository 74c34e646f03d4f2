package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/ballrelay/internal/store"
)

// Schema creates the connection journal. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS connections (
	conn_id         TEXT PRIMARY KEY,
	client_id       INTEGER NOT NULL,
	remote          TEXT NOT NULL DEFAULT '',
	player          TEXT NOT NULL DEFAULT '',
	connected_at    DATETIME NOT NULL,
	disconnected_at DATETIME NULL,
	frames_in       INTEGER NOT NULL DEFAULT 0,
	close_reason    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_connections_connected ON connections(connected_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the journal schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, applySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; ":memory:" also needs it
	// so every query sees the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordConnect inserts a journal row for a newly registered client.
func (s *SQLiteStore) RecordConnect(ctx context.Context, conn *store.Connection) error {
	query := `
		INSERT INTO connections (conn_id, client_id, remote, player, connected_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		conn.ConnID,
		conn.ClientID,
		conn.Remote,
		conn.Player,
		conn.ConnectedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

// RecordDisconnect completes the row identified by connID.
func (s *SQLiteStore) RecordDisconnect(ctx context.Context, connID string, at time.Time, framesIn uint64, reason string) error {
	query := `
		UPDATE connections
		SET disconnected_at = ?, frames_in = ?, close_reason = ?
		WHERE conn_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, at.UTC(), int64(framesIn), reason, connID)
	if err != nil {
		return fmt.Errorf("update connection: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RecentConnections lists the newest journal rows first.
func (s *SQLiteStore) RecentConnections(ctx context.Context, limit int) ([]store.Connection, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT conn_id, client_id, remote, player, connected_at, disconnected_at, frames_in, close_reason
		FROM connections
		ORDER BY connected_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var conns []store.Connection
	for rows.Next() {
		var (
			c            store.Connection
			disconnected sql.NullTime
			framesIn     int64
		)
		if err := rows.Scan(
			&c.ConnID,
			&c.ClientID,
			&c.Remote,
			&c.Player,
			&c.ConnectedAt,
			&disconnected,
			&framesIn,
			&c.CloseReason,
		); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		if disconnected.Valid {
			at := disconnected.Time
			c.DisconnectedAt = &at
		}
		c.FramesIn = uint64(framesIn)
		conns = append(conns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return conns, nil
}
