package http

import (
	"time"

	"github.com/vovakirdan/ballrelay/internal/core"
	"github.com/vovakirdan/ballrelay/internal/store"
)

// ConnectionResponse is one connection journal row.
type ConnectionResponse struct {
	ConnID         string     `json:"conn_id"`
	ClientID       uint32     `json:"client_id"`
	Remote         string     `json:"remote"`
	Player         string     `json:"player,omitempty"`
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
	FramesIn       uint64     `json:"frames_in"`
	CloseReason    string     `json:"close_reason,omitempty"`
}

// ClientsResponse lists the currently registered clients.
type ClientsResponse struct {
	Clients []uint32 `json:"clients"`
	Count   int      `json:"count"`
}

func connectionToResponse(c store.Connection) ConnectionResponse {
	return ConnectionResponse{
		ConnID:         c.ConnID,
		ClientID:       c.ClientID,
		Remote:         c.Remote,
		Player:         c.Player,
		ConnectedAt:    c.ConnectedAt,
		DisconnectedAt: c.DisconnectedAt,
		FramesIn:       c.FramesIn,
		CloseReason:    c.CloseReason,
	}
}

func clientsToResponse(ids []core.ClientID) ClientsResponse {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return ClientsResponse{Clients: out, Count: len(out)}
}
