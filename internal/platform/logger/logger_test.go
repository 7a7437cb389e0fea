package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "abc")
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Fatalf("request id = %q, want %q", got, "abc")
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	original := Get()
	Set(zap.New(core))
	defer Set(original)

	InfoContext(ContextWithRequestID(context.Background(), "req-1"), "hello")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["req_id"]; got != "req-1" {
		t.Fatalf("req_id = %v, want req-1", got)
	}
}
