package core

import (
	"math"
	"sync/atomic"
)

// ClientID identifies a connection for the lifetime of the process. Ids are
// never reused.
type ClientID uint32

// IDSequence hands out ClientIDs from a monotonically increasing counter
// starting at zero. The zero value is ready to use.
type IDSequence struct {
	next atomic.Uint64
}

// Next returns the next unused id.
func (s *IDSequence) Next() (ClientID, error) {
	n := s.next.Add(1) - 1
	if n > math.MaxUint32 {
		return 0, ErrIDsExhausted
	}
	return ClientID(n), nil
}
