// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; the consent handler and the slots it binds read
// them without importing net/http specifics.
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//	ctx = requestcontext.WithProfileID(ctx, profileID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	profileIDKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyProfileID   = profileIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ProfileID retrieves the browser profile identifier that scopes server-side
// consent slots. Returns "" when the profile middleware did not run.
func ProfileID(ctx context.Context) string {
	if profileID, ok := ctx.Value(ContextKeyProfileID).(string); ok {
		return profileID
	}
	return ""
}

// WithProfileID injects a profile identifier into the context.
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, ContextKeyProfileID, profileID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (CLI, tests, background callers).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for expiry tests that must not depend on the wall clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
