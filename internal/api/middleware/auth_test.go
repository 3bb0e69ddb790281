package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksync/tasksync-api/internal/api/shared"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/service/auth"
)

type authenticatorFunc func(ctx context.Context, token string) (*domain.User, *auth.Claims, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, token string) (*domain.User, *auth.Claims, error) {
	return f(ctx, token)
}

func TestAuthMiddleware(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Username: "alice", Role: domain.RoleUser}
	claims := &auth.Claims{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}

	authenticator := authenticatorFunc(func(_ context.Context, token string) (*domain.User, *auth.Claims, error) {
		switch token {
		case "good":
			return user, claims, nil
		case "revoked":
			return nil, nil, auth.ErrRevokedToken
		case "expired":
			return nil, nil, auth.ErrExpiredToken
		case "gone":
			return nil, nil, fmt.Errorf("%w: user no longer exists", auth.ErrInvalidToken)
		case "broken":
			return nil, nil, errors.New("redis: connection refused")
		}
		return nil, nil, auth.ErrInvalidToken
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
		wantReason string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusOK},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantError: "Authorization header required", wantReason: ReasonMissing},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantError: "Invalid authorization format", wantReason: ReasonMalformed},
		{name: "no token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantError: "Invalid authorization format", wantReason: ReasonMalformed},
		{name: "revoked", header: "Bearer revoked", wantStatus: http.StatusUnauthorized, wantError: "Token revoked", wantReason: ReasonRevoked},
		{name: "expired", header: "Bearer expired", wantStatus: http.StatusUnauthorized, wantError: "Token expired", wantReason: ReasonExpired},
		{name: "tampered", header: "Bearer tampered", wantStatus: http.StatusUnauthorized, wantError: "Invalid token", wantReason: ReasonInvalid},
		{name: "deleted user", header: "Bearer gone", wantStatus: http.StatusUnauthorized, wantError: "Invalid token", wantReason: ReasonInvalid},
		{name: "backend failure", header: "Bearer broken", wantStatus: http.StatusInternalServerError, wantError: "Something went wrong", wantReason: ReasonError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var reasons []string
			mw := NewAuthMiddleware(authenticator, func(reason string) { reasons = append(reasons, reason) }, nil)

			var session *shared.Session
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				session, _ = shared.SessionFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			mw.Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				require.NotNil(t, session)
				assert.Same(t, user, session.User)
				assert.Equal(t, "good", session.Token)
				assert.Same(t, claims, session.Claims)
				assert.Empty(t, reasons)
				return
			}

			assert.Nil(t, session)
			var resp shared.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantError, resp.Error)
			assert.Equal(t, []string{tc.wantReason}, reasons)
			assert.NotContains(t, w.Body.String(), "redis")
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	})

	w := httptest.NewRecorder()
	TraceMiddleware(base)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, traceID, 32)
	assert.Equal(t, traceID, w.Header().Get("X-Trace-ID"))
	assert.Contains(t, buf.String(), `"trace_id":"`+traceID+`"`)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := TraceMiddleware(base)(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/tasks/createtask", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "/tasks/createtask", entry["path"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
	assert.NotEmpty(t, entry["trace_id"])
}
