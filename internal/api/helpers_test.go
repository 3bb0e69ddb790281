package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tasksync/tasksync-api/internal/api/shared"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/service/auth"
)

func testUser(role domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:        uuid.New(),
		Username:  "user-" + string(role),
		Email:     string(role) + "@example.com",
		Role:      role,
		Team:      "core",
		Token:     "session-token",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// asUser returns middleware that authenticates every request as user.
func asUser(user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}
			claims := &auth.Claims{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
			ctx := shared.WithSession(r.Context(), &shared.Session{User: user, Token: user.Token, Claims: claims})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTaskRouter(h *TaskHandler, user *domain.User) http.Handler {
	r := chi.NewRouter()
	r.Use(asUser(user))
	r.Post("/tasks/createtask", h.CreateTask)
	r.Get("/tasks/listtasks", h.ListTasks)
	r.Put("/tasks/updatetask/{id}", h.UpdateTask)
	r.Put("/tasks/updatestatus/{id}", h.UpdateStatus)
	r.Put("/tasks/updatepriority/{id}", h.UpdatePriority)
	r.Put("/tasks/assigntask/{id}", h.AssignTask)
	r.Delete("/tasks/deletetask/{id}", h.DeleteTask)
	return r
}

func newUserRouter(h *UserHandler, user *domain.User) http.Handler {
	r := chi.NewRouter()
	r.Post("/users/signup", h.Signup)
	r.Post("/users/login", h.Login)
	r.Get("/users/allmanagers", h.AllManagers)
	r.Group(func(r chi.Router) {
		r.Use(asUser(user))
		r.Post("/users/logout", h.Logout)
		r.Get("/users/profile", h.Profile)
		r.Get("/users/allusers", h.AllUsers)
		r.Get("/users/getmanagerusers", h.ManagerUsers)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
