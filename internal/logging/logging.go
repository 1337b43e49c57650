// Package logging carries the per-request correlation id through the
// context so that every layer — middleware, handlers, services — can stamp
// its log lines with the same request_id.
//
// The id itself is set by the HTTP middleware; everything below HTTP only
// ever reads it via FromContext. Keeping the context key here (rather than
// in the middleware package) lets the service layer attach the id without
// importing anything HTTP-shaped.
package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// WithRequestID returns a context carrying the correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation id set by WithRequestID, or "" outside
// a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FromContext returns base with the context's correlation id attached as a
// request_id attribute, or base unchanged when the context carries none.
// Call it at the log site (or once per operation) so a request's log lines
// can be tied together across layers.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return base.With(slog.String("request_id", id))
	}
	return base
}
