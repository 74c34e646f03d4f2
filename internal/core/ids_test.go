package core

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestIDSequenceStartsAtZeroAndIncreases(t *testing.T) {
	var seq IDSequence
	for want := range ClientID(10) {
		got, err := seq.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("got id %d, want %d", got, want)
		}
	}
}

func TestIDSequenceConcurrentUnique(t *testing.T) {
	const workers, perWorker = 32, 200

	var seq IDSequence
	var mu sync.Mutex
	seen := make(map[ClientID]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := ClientID(0)
			for i := range perWorker {
				id, err := seq.Next()
				if err != nil {
					t.Errorf("next: %v", err)
					return
				}
				if i > 0 && id <= last {
					t.Errorf("id %d not greater than previous %d", id, last)
				}
				last = id

				mu.Lock()
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d ids, got %d", workers*perWorker, len(seen))
	}
}

func TestIDSequenceExhausted(t *testing.T) {
	var seq IDSequence
	seq.next.Store(math.MaxUint32)

	id, err := seq.Next()
	if err != nil || id != math.MaxUint32 {
		t.Fatalf("expected last id, got %d, %v", id, err)
	}
	if _, err := seq.Next(); !errors.Is(err, ErrIDsExhausted) {
		t.Fatalf("expected ErrIDsExhausted, got %v", err)
	}
}
