// Package shared holds request-scoped context values and the JSON response
// helpers used by the handlers and middleware.
package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// ContextKey is the type of context keys set by this package.
type ContextKey string

const (
	// TenantIDContextKey carries the tenant resolved by the tenant middleware.
	TenantIDContextKey ContextKey = "tenantID"

	// TraceIDKey carries the per-request trace id.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes in a trace id.
	TraceIDLength = 16
)

// SetTraceID returns ctx carrying a fresh trace id.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the request trace id, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// WithTenantID returns ctx carrying tenantID.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDContextKey, tenantID)
}

// GetTenantID returns the tenant of the request, or "".
func GetTenantID(ctx context.Context) string {
	tenantID, _ := ctx.Value(TenantIDContextKey).(string)
	return tenantID
}

// generateTraceID returns 32 hex characters. A uuid is used if the system
// random source fails.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		id := uuid.New()
		return hex.EncodeToString(id[:])
	}
	return hex.EncodeToString(b)
}
