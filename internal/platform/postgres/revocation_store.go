package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/store"
)

// PostgresRevocationStore keeps revoked token hashes in the revoked_tokens
// table. Expired rows are ignored on read and removed by PurgeExpired.
type PostgresRevocationStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresRevocationStore creates a revocation store backed by db.
func NewPostgresRevocationStore(db store.DBTX, logger *slog.Logger) *PostgresRevocationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRevocationStore{
		db:     db,
		logger: logger.With(slog.String("component", "revocation_store")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ store.RevocationStore = (*PostgresRevocationStore)(nil)

// Revoke implements store.RevocationStore.Revoke
func (s *PostgresRevocationStore) Revoke(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	expiresAt := s.now().Add(ttl)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_hash, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_hash)
		DO UPDATE SET expires_at = GREATEST(revoked_tokens.expires_at, EXCLUDED.expires_at)
	`, key, expiresAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to revoke token",
			slog.String("error", err.Error()))
		return store.NewStoreError("revoked_token", "revoke", "insert failed", err)
	}
	return nil
}

// IsRevoked implements store.RevocationStore.IsRevoked
func (s *PostgresRevocationStore) IsRevoked(ctx context.Context, key string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1 AND expires_at > $2)`,
		key, s.now()).Scan(&revoked)
	if err != nil {
		return false, store.NewStoreError("revoked_token", "is_revoked", "query failed", err)
	}
	return revoked, nil
}

// PurgeExpired deletes revocations whose tokens have expired and returns
// how many were removed.
func (s *PostgresRevocationStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, store.NewStoreError("revoked_token", "purge", "delete failed", err)
	}
	return result.RowsAffected()
}

// RunPurger calls PurgeExpired every interval until ctx is cancelled.
func (s *PostgresRevocationStore) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.logger.Warn("revocation purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Debug("purged expired revocations", slog.Int64("count", n))
			}
		}
	}
}
