package core

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestRegistryRegisterAndUnregister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(1, NewMailbox(0)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(1, NewMailbox(0)); !errors.Is(err, ErrDuplicateClient) {
		t.Fatalf("expected ErrDuplicateClient, got %v", err)
	}
	if !r.Contains(1) || r.Len() != 1 {
		t.Fatalf("client 1 should be registered")
	}

	if !r.Unregister(1) {
		t.Fatalf("first unregister should remove the entry")
	}
	if r.Unregister(1) {
		t.Fatalf("second unregister should be a no-op")
	}
	if r.Unregister(404) {
		t.Fatalf("unregistering an unknown id should be a no-op")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistrySendExcept(t *testing.T) {
	r := NewRegistry()
	boxes := map[ClientID]*Mailbox{}
	for id := range ClientID(4) {
		boxes[id] = NewMailbox(0)
		_ = r.Register(id, boxes[id])
	}

	d := r.SendExcept(2, []byte("hi"))
	if d.Sent != 3 || len(d.Dropped) != 0 {
		t.Fatalf("unexpected delivery: %+v", d)
	}
	for id, mb := range boxes {
		want := 1
		if id == 2 {
			want = 0
		}
		if mb.Len() != want {
			t.Fatalf("client %d: expected %d frames, got %d", id, want, mb.Len())
		}
	}
}

func TestRegistrySendExceptSkipsClosedMailbox(t *testing.T) {
	r := NewRegistry()
	open := NewMailbox(0)
	closing := NewMailbox(0)
	full := NewMailbox(1)
	_ = full.Push([]byte("backlog"))

	_ = r.Register(1, open)
	_ = r.Register(2, closing)
	_ = r.Register(3, full)
	closing.Close()

	d := r.SendExcept(99, []byte("x"))
	if d.Sent != 1 {
		t.Fatalf("expected one successful delivery, got %+v", d)
	}
	slices.Sort(d.Dropped)
	if !slices.Equal(d.Dropped, []ClientID{2, 3}) {
		t.Fatalf("unexpected dropped ids: %v", d.Dropped)
	}
	if open.Len() != 1 {
		t.Fatalf("open mailbox should have received the frame")
	}
}

func TestRegistryIDsSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []ClientID{9, 3, 5} {
		_ = r.Register(id, NewMailbox(0))
	}
	if ids := r.IDs(); !slices.Equal(ids, []ClientID{3, 5, 9}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(id ClientID) {
			defer wg.Done()
			mb := NewMailbox(0)
			if err := r.Register(id, mb); err != nil {
				t.Errorf("register %d: %v", id, err)
				return
			}
			for range 20 {
				r.SendExcept(id, []byte{byte(id)})
			}
			r.Unregister(id)
			mb.Close()
			// Drain to make sure nothing blocks after close.
			for {
				if _, err := mb.Pop(context.Background()); err != nil {
					break
				}
			}
		}(ClientID(i))
	}

	wg.Wait()
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}
