// Package memory holds in-process fallbacks for stores that normally live in
// an external service.
package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationStore keeps revoked token ids in a map until they expire. It is
// used when no Redis address is configured and is lost on restart.
type RevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewRevocationStore() *RevocationStore {
	return &RevocationStore{entries: make(map[string]time.Time), now: time.Now}
}

func (s *RevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.entries[tokenID] = now.Add(ttl)
	return nil
}

func (s *RevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.entries, tokenID)
		return false, nil
	}
	return true, nil
}

// sweep drops expired entries. Callers hold mu.
func (s *RevocationStore) sweep(now time.Time) {
	for id, until := range s.entries {
		if !now.Before(until) {
			delete(s.entries, id)
		}
	}
}
