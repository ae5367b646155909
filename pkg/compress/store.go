package compress

import (
	"context"
	"sync"
)

// Store holds at most one compression record per input, keyed by the input's
// stable key. Each Begin starts a new generation for the key; only the latest
// generation may commit.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	generation uint64
	cancel     context.CancelFunc
	payload    string
	ready      bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Begin opens a new generation for key. Any pending compression for the key
// is cancelled and any committed record is dropped so the original file is
// the submission candidate until the new result lands.
func (s *Store) Begin(ctx context.Context, key string) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	e.payload = ""
	e.ready = false

	taskCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	return taskCtx, e.generation
}

// Commit stores payload for key if generation is still current. It reports
// whether the record was written.
func (s *Store) Commit(key string, generation uint64, payload string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.generation != generation {
		return false
	}
	e.payload = payload
	e.ready = true
	e.release()
	return true
}

// Abandon ends generation without a record. Stale generations are ignored.
func (s *Store) Abandon(key string, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.generation != generation {
		return false
	}
	e.payload = ""
	e.ready = false
	e.release()
	return true
}

// Lookup returns the committed record for key.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.ready {
		return "", false
	}
	return e.payload, true
}

// Consume returns and clears the committed record for key.
func (s *Store) Consume(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.ready {
		return "", false
	}
	payload := e.payload
	e.payload = ""
	e.ready = false
	return payload, true
}

// Clear cancels pending work for key and drops its record.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.release()
	e.generation++
	e.payload = ""
	e.ready = false
}

// Len reports how many committed records the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.ready {
			n++
		}
	}
	return n
}

func (e *entry) release() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
