package core

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// Mailbox is the delivery handle of one connection: a FIFO of encoded frames
// filled by any number of producers and drained by the connection's writer.
// Push never blocks.
type Mailbox struct {
	mu     sync.Mutex
	frames deque.Deque[[]byte]
	limit  int
	closed bool
	ready  chan struct{}
}

// NewMailbox builds a mailbox holding at most limit frames; limit <= 0 means
// unbounded.
func NewMailbox(limit int) *Mailbox {
	return &Mailbox{
		limit: limit,
		ready: make(chan struct{}, 1),
	}
}

// Push appends a frame. It fails with ErrMailboxClosed after Close and with
// ErrMailboxFull when the limit is reached.
func (m *Mailbox) Push(frame []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMailboxClosed
	}
	if m.limit > 0 && m.frames.Len() >= m.limit {
		m.mu.Unlock()
		return ErrMailboxFull
	}
	m.frames.PushBack(frame)
	m.mu.Unlock()

	m.wake()
	return nil
}

// Pop blocks until a frame is available, the mailbox is closed and drained,
// or ctx is done.
func (m *Mailbox) Pop(ctx context.Context) ([]byte, error) {
	for {
		m.mu.Lock()
		if m.frames.Len() > 0 {
			frame := m.frames.PopFront()
			m.mu.Unlock()
			return frame, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return nil, ErrMailboxClosed
		}

		select {
		case <-m.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close marks the mailbox as no longer writable. Frames already queued can
// still be popped. Close is idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.wake()
}

// Len returns the number of queued frames.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames.Len()
}

func (m *Mailbox) wake() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
