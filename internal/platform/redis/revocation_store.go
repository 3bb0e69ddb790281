// Package redis provides the Redis-backed token revocation store.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/store"
)

// keyPrefix namespaces revocation entries in a shared Redis.
const keyPrefix = "tasksync:revoked:"

// RevocationStore stores revoked token keys with a Redis TTL so entries
// disappear when the token would have expired anyway.
type RevocationStore struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// NewRevocationStore wraps an existing client.
func NewRevocationStore(client goredis.UniversalClient, logger *slog.Logger) *RevocationStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RevocationStore{
		client: client,
		logger: logger.With(slog.String("component", "redis_revocation_store")),
	}
}

var _ store.RevocationStore = (*RevocationStore)(nil)

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Revoke implements store.RevocationStore.Revoke
func (s *RevocationStore) Revoke(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+key, 1, ttl).Err(); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to revoke token",
			slog.String("error", err.Error()))
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

// IsRevoked implements store.RevocationStore.IsRevoked
func (s *RevocationStore) IsRevoked(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}
