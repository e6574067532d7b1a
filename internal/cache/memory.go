package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. It backs tests and redis-less
// deployments; entries vanish on restart, which the resolver treats as an
// ordinary miss.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	payload []byte
	savedAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	payload := make([]byte, len(e.payload))
	copy(payload, e.payload)
	return Entry{Payload: payload, Age: s.now().Sub(e.savedAt)}, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.entries[key] = memEntry{payload: stored, savedAt: s.now()}
	return nil
}
