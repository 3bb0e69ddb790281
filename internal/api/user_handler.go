package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tasksync/tasksync-api/internal/api/shared"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/service"
)

// UserHandler handles account and session requests.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// Signup handles POST /users/signup.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role, err := domain.ParseRole(req.UserType)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	manager, err := parseOptionalUUID("underManager", req.UnderManager)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.Signup(r.Context(), service.SignupInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Role:         role,
		UnderManager: manager,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, SignupResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Login(r.Context(), strings.TrimSpace(req.Identifier), req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{Status: "200", Data: user})
}

// Logout handles POST /users/logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := shared.SessionFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	if err := h.users.Logout(r.Context(), session.User, session.Token, session.Claims); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("session revoked")
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Logged out"})
}

// Profile handles GET /users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		UserType: user.Role,
		Team:     user.Team,
	})
}

// AllUsers handles GET /users/allusers.
func (h *UserHandler) AllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, users)
}

// AllManagers handles GET /users/allmanagers. It is public so the signup
// form can offer a manager list.
func (h *UserHandler) AllManagers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.users.ListManagers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, managers)
}

// ManagerUsers handles GET /users/getmanagerusers.
func (h *UserHandler) ManagerUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	users, err := h.users.ListManagedUsers(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, users)
}
