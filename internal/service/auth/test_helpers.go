package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSecret is a signing key long enough to pass validation.
const TestSecret = "test-jwt-secret-that-is-32-chars-long"

// NewTestJWTService creates a JWT service with a fixed secret and clock.
// A nil now uses time.Now.
func NewTestJWTService(t *testing.T, lifetime time.Duration, now func() time.Time) JWTService {
	t.Helper()
	if now == nil {
		now = time.Now
	}
	svc, err := newHMACJWTService(TestSecret, lifetime, now)
	require.NoError(t, err, "Failed to create test JWT service")
	return svc
}
