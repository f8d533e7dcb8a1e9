package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	taskIDKey   contextKey = "task_id"
	tenantIDKey contextKey = "tenant_id"
)

// WithTask returns a context carrying the task and tenant identifiers.
// Records logged through a ContextHandler with this context get both as attributes.
func WithTask(ctx context.Context, taskID, tenantID string) context.Context {
	ctx = context.WithValue(ctx, taskIDKey, taskID)
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TaskID returns the task identifier stored by WithTask, or "".
func TaskID(ctx context.Context) string {
	v, _ := ctx.Value(taskIDKey).(string)
	return v
}

// TenantID returns the tenant identifier stored by WithTask, or "".
func TenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// ContextHandler wraps another slog.Handler and adds task metadata found in the
// record's context.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled implements the slog.Handler interface.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup implements the slog.Handler interface.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// Handle implements the slog.Handler interface.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx != nil {
		if id := TaskID(ctx); id != "" {
			record.AddAttrs(slog.String(string(taskIDKey), id))
		}
		if id := TenantID(ctx); id != "" {
			record.AddAttrs(slog.String(string(tenantIDKey), id))
		}
	}
	return h.handler.Handle(ctx, record)
}
