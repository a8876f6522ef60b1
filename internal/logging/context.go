// Package logging carries sync correlation attributes (run, file, key) on a
// context and injects them into slog records.
package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	fileKey
	secretKey
)

// WithRunID returns a context with the run ID set.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithFile returns a context with the secrets file path set.
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fileKey, path)
}

// WithKey returns a context with the secret key set.
func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, secretKey, key)
}

// RunID extracts the run ID from the context, or "" if absent.
func RunID(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}

// File extracts the secrets file path from the context, or "" if absent.
func File(ctx context.Context) string {
	v, _ := ctx.Value(fileKey).(string)
	return v
}

// Key extracts the secret key from the context, or "" if absent.
func Key(ctx context.Context) string {
	v, _ := ctx.Value(secretKey).(string)
	return v
}

// CorrelationHandler wraps an slog.Handler and adds the correlation
// attributes found on the record's context. Only non-empty values are added.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := RunID(ctx); v != "" {
		r.AddAttrs(slog.String("run_id", v))
	}
	if v := File(ctx); v != "" {
		r.AddAttrs(slog.String("file", v))
	}
	if v := Key(ctx); v != "" {
		r.AddAttrs(slog.String("key", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
