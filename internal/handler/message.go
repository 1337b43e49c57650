package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/promptstore/internal/apperror"
	"github.com/sakif/promptstore/internal/auth"
	"github.com/sakif/promptstore/internal/logging"
	"github.com/sakif/promptstore/internal/service"
)

// MessageHandler exposes ownership-scoped CRUD over system messages.
//
// Every handler extracts the authenticated Identity set by the auth
// middleware and passes its user id explicitly into the service — the
// service never reads ambient request state.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// messageRequest is the body of create and update.
type messageRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// identity pulls the authenticated caller out of the request context.
// Returns false after writing a 401 — unreachable behind RequireAuth,
// handled anyway.
func (h *MessageHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return auth.Identity{}, false
	}
	return id, true
}

// messageID parses the {id} path segment. A non-integer id cannot name any
// record, so it is reported as NotFound — the same answer as for an absent
// or foreign-owned id.
func (h *MessageHandler) messageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "system message not found",
		})
		return 0, false
	}
	return id, true
}

// HandleCreate saves a new system message for the caller.
//
// HTTP: POST /system_message/
// BODY: {"name": "greeting", "content": "hello"}
//
// 201 with the full stored record, 400 on missing fields, 409 when the
// caller already has a message with that name, 500 otherwise.
func (h *MessageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("invalid system message JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if req.Name == "" || req.Content == "" {
		writeError(w, apperror.ValidationFailed("body", "name and content are required"))
		return
	}

	msg, err := h.messages.Create(r.Context(), identity.UserID, req.Name, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// HandleList returns all of the caller's messages, name ascending.
//
// HTTP: GET /system_message/
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	messages, err := h.messages.List(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// HandleGet returns one of the caller's messages.
//
// HTTP: GET /system_message/{id}
//
// 404 covers absent and foreign-owned alike — the caller cannot learn
// whether someone else's record exists.
func (h *MessageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	msg, err := h.messages.Get(r.Context(), identity.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// HandleUpdate rewrites one of the caller's messages.
//
// HTTP: PUT /system_message/{id}
// BODY: {"name": "greeting2", "content": "hi"}
//
// 200 with the updated record, 400 on missing fields, 404 when the id is
// absent or foreign, 409 when the new name collides with another of the
// caller's messages.
func (h *MessageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("invalid system message JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if req.Name == "" || req.Content == "" {
		writeError(w, apperror.ValidationFailed("body", "name and content are required"))
		return
	}

	msg, err := h.messages.Update(r.Context(), identity.UserID, id, req.Name, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// HandleDelete removes one of the caller's messages.
//
// HTTP: DELETE /system_message/{id}
//
// 200 {"message": "..."} on success, 404 when absent or foreign.
func (h *MessageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	if err := h.messages.Delete(r.Context(), identity.UserID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "System message deleted successfully",
	})
}
