package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RevocationStore records session tokens that must no longer authenticate.
// Entries only need to outlive the token itself, so each carries a TTL.
type RevocationStore interface {
	// Revoke marks the token with the given key as revoked for ttl.
	// A non-positive ttl is a no-op since the token has already expired.
	Revoke(ctx context.Context, key string, ttl time.Duration) error

	// IsRevoked reports whether key is currently revoked.
	IsRevoked(ctx context.Context, key string) (bool, error)
}

// TokenKey derives the revocation key for a raw bearer token. Raw tokens are
// never persisted.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
