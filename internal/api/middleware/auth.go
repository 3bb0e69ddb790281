package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tasksync/tasksync-api/internal/api/shared"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/service/auth"
)

// Authenticator resolves a bearer token to its user and claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, *auth.Claims, error)
}

// Authentication failure reasons reported to the failure hook.
const (
	ReasonMissing   = "missing"
	ReasonMalformed = "malformed"
	ReasonRevoked   = "revoked"
	ReasonExpired   = "expired"
	ReasonInvalid   = "invalid"
	ReasonError     = "error"
)

// AuthMiddleware provides bearer token authentication for routes.
type AuthMiddleware struct {
	authenticator Authenticator
	onFailure     func(reason string)
	logger        *slog.Logger
}

// NewAuthMiddleware creates an AuthMiddleware. onFailure, when non-nil, is
// called with a reason for every rejected request.
func NewAuthMiddleware(authenticator Authenticator, onFailure func(reason string), logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		authenticator: authenticator,
		onFailure:     onFailure,
		logger:        logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate rejects requests without a valid, unrevoked bearer token and
// stores the caller's session in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, reason := bearerToken(r)
		if reason != "" {
			m.reject(w, r, reason, nil)
			return
		}

		user, claims, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.reject(w, r, failureReason(err), err)
			return
		}

		ctx := shared.WithSession(r.Context(), &shared.Session{User: user, Token: token, Claims: claims})
		log := logger.FromContextOrDefault(ctx, m.logger).With(slog.String("user_id", user.ID.String()))
		ctx = logger.WithContext(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, reason string, err error) {
	if m.onFailure != nil {
		m.onFailure(reason)
	}

	switch reason {
	case ReasonMissing:
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
	case ReasonMalformed:
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
	case ReasonRevoked:
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Token revoked")
	case ReasonExpired:
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
	case ReasonInvalid:
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err)
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Something went wrong", err)
	}
}

// bearerToken extracts the token from the Authorization header. The second
// return value is a failure reason, empty on success.
func bearerToken(r *http.Request) (string, string) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ReasonMissing
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.Contains(token, " ") {
		return "", ReasonMalformed
	}
	return token, ""
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return ReasonMissing
	case errors.Is(err, auth.ErrRevokedToken):
		return ReasonRevoked
	case errors.Is(err, auth.ErrExpiredToken):
		return ReasonExpired
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		return ReasonInvalid
	default:
		return ReasonError
	}
}
