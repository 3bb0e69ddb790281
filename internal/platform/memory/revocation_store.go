// Package memory holds an in-process revocation store for single-instance
// deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tasksync/tasksync-api/internal/store"
)

// RevocationStore keeps revoked keys in a map with per-entry expiry.
// Expired entries are dropped lazily on read and by Sweep.
type RevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewRevocationStore returns an empty store.
func NewRevocationStore() *RevocationStore {
	return NewRevocationStoreWithClock(time.Now)
}

// NewRevocationStoreWithClock returns an empty store that reads the time
// from now.
func NewRevocationStoreWithClock(now func() time.Time) *RevocationStore {
	return &RevocationStore{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

var _ store.RevocationStore = (*RevocationStore)(nil)

func (s *RevocationStore) Revoke(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(ttl)
	if cur, ok := s.entries[key]; !ok || expiresAt.After(cur) {
		s.entries[key] = expiresAt
	}
	return nil
}

func (s *RevocationStore) IsRevoked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

// Sweep removes every expired entry and returns how many were removed.
func (s *RevocationStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked entries, expired or not.
func (s *RevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
