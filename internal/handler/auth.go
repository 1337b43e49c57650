package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/promptstore/internal/apperror"
	"github.com/sakif/promptstore/internal/auth"
	"github.com/sakif/promptstore/internal/logging"
	"github.com/sakif/promptstore/internal/service"
)

// AuthHandler exposes registration, login, and profile over HTTP.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account, 201 with the new user id
//   - HandleLogin    → verify credentials, 200 with an access token
//   - HandleProfile  → return the authenticated user's profile
//
// The handler only parses requests and writes responses; every rule lives
// in the service layer.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

// credentialsRequest is the body of both register and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new user account.
//
// HTTP: POST /auth/register
// BODY: {"username": "alice", "password": "pw123"}
//
// 201 {"message": "...", "user_id": 1} on success, 400 on missing fields,
// 409 on a duplicate username, 500 otherwise.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("invalid register JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("body", "username and password are required"))
		return
	}

	userID, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user_id": userID,
	})
}

// loginUser is the user object embedded in the login response. It carries
// only id and username — the full profile (with created_at) is served by
// /auth/profile.
type loginUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// loginResponse is the success body of /auth/login.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	User        loginUser `json:"user"`
}

// HandleLogin verifies credentials and issues an access token.
//
// HTTP: POST /auth/login
// BODY: {"username": "alice", "password": "pw123"}
//
// 200 {"access_token": "...", "user": {...}} on success, 400 on missing
// fields, 401 on bad credentials (one message for unknown user and wrong
// password alike), 500 when token signing fails.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("invalid login JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("body", "username and password are required"))
		return
	}

	user, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		User:        loginUser{ID: user.ID, Username: user.Username},
	})
}

// HandleProfile returns the authenticated user's profile.
//
// HTTP: GET /auth/profile
// Auth: required (RequireAuth middleware)
//
// 200 {"id": 1, "username": "alice", "created_at": "..."}. The password
// hash is excluded at the store projection and at the JSON tag — it cannot
// appear here.
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Error("profile lookup failed",
			slog.Int64("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
