package core

import (
	"slices"
	"sync"
)

// Delivery reports the outcome of one fan-out pass.
type Delivery struct {
	Sent    int
	Dropped []ClientID
}

// Registry maps connected clients to their mailboxes. It is the only state
// shared between sessions. The lock is held for bookkeeping and non-blocking
// mailbox pushes only, never for network I/O.
type Registry struct {
	mu      sync.RWMutex
	members map[ClientID]*Mailbox
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[ClientID]*Mailbox)}
}

// Register inserts a client. Registering an id twice is an error.
func (r *Registry) Register(id ClientID, mailbox *Mailbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[id]; exists {
		return ErrDuplicateClient
	}
	r.members[id] = mailbox
	return nil
}

// Unregister removes a client. Removing an absent id is a no-op. Returns true
// if an entry was removed.
func (r *Registry) Unregister(id ClientID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[id]; !exists {
		return false
	}
	delete(r.members, id)
	return true
}

// SendExcept pushes frame to every member except exclude. A member whose
// mailbox refuses the frame is recorded in Dropped and does not affect the
// others.
func (r *Registry) SendExcept(exclude ClientID, frame []byte) Delivery {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var d Delivery
	for id, mailbox := range r.members {
		if id == exclude {
			continue
		}
		if err := mailbox.Push(frame); err != nil {
			d.Dropped = append(d.Dropped, id)
			continue
		}
		d.Sent++
	}
	return d
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id ClientID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []ClientID {
	r.mu.RLock()
	ids := make([]ClientID, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}
