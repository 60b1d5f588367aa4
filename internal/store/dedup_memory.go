package store

import (
	"context"
	"sync"
	"time"
)

// DedupMemoryStore is an in-memory implementation of dedup.Store. The
// check-then-record sequence runs under one mutex so two concurrent requests
// cannot both claim the same key.
type DedupMemoryStore struct {
	mu       sync.Mutex
	accepted map[string]time.Time
	now      func() time.Time
}

// NewDedupMemoryStore creates a new in-memory dedup store.
func NewDedupMemoryStore() *DedupMemoryStore {
	return &DedupMemoryStore{
		accepted: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *DedupMemoryStore) Claim(_ context.Context, key string, window, retention time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	// Opportunistic eviction keeps the map bounded
	for k, ts := range s.accepted {
		if now.Sub(ts) > retention {
			delete(s.accepted, k)
		}
	}

	if ts, ok := s.accepted[key]; ok && now.Sub(ts) < window {
		return false, nil
	}

	s.accepted[key] = now

	return true, nil
}

// Len reports the number of retained acceptances.
func (s *DedupMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.accepted)
}
