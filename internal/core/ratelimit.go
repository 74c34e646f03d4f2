package core

import "time"

// rateLimiter caps inbound frames per one-second window. It is owned by a
// single read loop and needs no locking.
type rateLimiter struct {
	limit   int
	counter int
	window  time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{limit: limit}
}

func (r *rateLimiter) allow(now time.Time) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if now.Sub(r.window) >= time.Second {
		r.window = now
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
