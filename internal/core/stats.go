package core

import "sync/atomic"

// Stats counts relay activity. All counters are safe for concurrent use.
type Stats struct {
	Connections       atomic.Uint64
	FramesIn          atomic.Uint64
	DecodeFailures    atomic.Uint64
	RateLimited       atomic.Uint64
	Broadcasts        atomic.Uint64
	Deliveries        atomic.Uint64
	DroppedDeliveries atomic.Uint64
}

// StatsSnapshot is a read-only copy of Stats for the metrics endpoint.
type StatsSnapshot struct {
	Active            int    `json:"active"`
	Connections       uint64 `json:"connections"`
	FramesIn          uint64 `json:"frames_in"`
	DecodeFailures    uint64 `json:"decode_failures"`
	RateLimited       uint64 `json:"rate_limited"`
	Broadcasts        uint64 `json:"broadcasts"`
	Deliveries        uint64 `json:"deliveries"`
	DroppedDeliveries uint64 `json:"dropped_deliveries"`
}

// Snapshot copies the counters. Active is filled in by the hub.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Connections:       s.Connections.Load(),
		FramesIn:          s.FramesIn.Load(),
		DecodeFailures:    s.DecodeFailures.Load(),
		RateLimited:       s.RateLimited.Load(),
		Broadcasts:        s.Broadcasts.Load(),
		Deliveries:        s.Deliveries.Load(),
		DroppedDeliveries: s.DroppedDeliveries.Load(),
	}
}
