package mocks

import (
	"context"
	"sync"
	"time"
)

// MockRevocationStore implements store.RevocationStore with an in-memory set
// and optional overrides.
type MockRevocationStore struct {
	RevokeFn    func(ctx context.Context, key string, ttl time.Duration) error
	IsRevokedFn func(ctx context.Context, key string) (bool, error)

	mu      sync.Mutex
	Revoked map[string]time.Duration
}

// NewMockRevocationStore returns an empty store.
func NewMockRevocationStore() *MockRevocationStore {
	return &MockRevocationStore{Revoked: make(map[string]time.Duration)}
}

// Revoke implements store.RevocationStore.
func (m *MockRevocationStore) Revoke(ctx context.Context, key string, ttl time.Duration) error {
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, key, ttl)
	}
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Revoked[key] = ttl
	return nil
}

// IsRevoked implements store.RevocationStore.
func (m *MockRevocationStore) IsRevoked(ctx context.Context, key string) (bool, error) {
	if m.IsRevokedFn != nil {
		return m.IsRevokedFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Revoked[key]
	return ok, nil
}
