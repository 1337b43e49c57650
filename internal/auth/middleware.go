package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/promptstore/internal/logging"
	"github.com/sakif/promptstore/internal/model"
)

// Identity is the authenticated caller of a request. The middleware builds
// one from a verified token and the handlers pass it explicitly into the
// service layer — services never reach into ambient request state.
type Identity struct {
	UserID   int64
	Username string
}

// Resolver turns a bearer token string into the user it identifies.
// Implemented by service.AuthService; declared here so the middleware
// doesn't depend on the service package.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. With a plain string key, ANY
// package that knows the string could read or shadow the value. A
// package-private type means only this package can create the key, so only
// this package can read or write identities in the context.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, resolves
// it to a user, and stores the Identity in the request context. If the
// header is missing, malformed, expired, or the user behind the token no
// longer exists, it returns 401 Unauthorized and stops the chain. Every
// failure produces the same client-visible body; the specific cause is
// logged server-side only.
func RequireAuth(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logging.FromContext(r.Context(), logger)

			token, ok := bearerToken(r)
			if !ok {
				log.Warn("auth: missing or malformed Authorization header",
					slog.String("path", r.URL.Path),
				)
				unauthorized(w)
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				// The error says whether the token was expired, forged, or
				// orphaned — useful in logs, never sent to the client.
				log.Warn("auth: token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				unauthorized(w)
				return
			}

			identity := Identity{UserID: user.ID, Username: user.Username}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity set by
// RequireAuth. Returns (zero, false) on an unauthenticated request —
// which should never happen behind RequireAuth, but handlers check anyway.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != 0
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme comparison is case-insensitive, matching common client
// behaviour ("bearer", "Bearer").
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// unauthorized writes the uniform 401 response. The body shape matches the
// handler package's ErrorResponse; it is inlined here because the handler
// package depends on this one.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
