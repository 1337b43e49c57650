package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc123")

	if got := RequestID(ctx); got != "abc123" {
		t.Errorf("RequestID() = %q, want %q", got, "abc123")
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID() on a bare context = %q, want empty", got)
	}
}

func TestFromContext_AttachesID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithRequestID(context.Background(), "abc123")
	FromContext(ctx, base).Info("something happened")

	line := buf.String()
	if !strings.Contains(line, "request_id=abc123") {
		t.Errorf("log line %q does not carry the correlation id", line)
	}
}

func TestFromContext_NoID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	// Without an id the base logger passes through untouched.
	got := FromContext(context.Background(), base)
	if got != base {
		t.Error("FromContext() without an id should return the base logger")
	}

	got.Info("something happened")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("log line %q should not carry a request_id", buf.String())
	}
}
