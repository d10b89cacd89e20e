// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values once per request; handlers, stores and the log
// handler read them from the context they are given. Nothing here is global.
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCorrelationID(ctx, id)
//	ctx = requestcontext.WithTime(ctx, time.Now())
//
// Usage downstream (read values):
//
//	correlationID := requestcontext.CorrelationID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	correlationIDKey struct{}
	requestTimeKey   struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyCorrelationID = correlationIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// CorrelationID retrieves the correlation identifier from the context.
// Returns "" if not set.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID injects a correlation identifier into the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, id)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
