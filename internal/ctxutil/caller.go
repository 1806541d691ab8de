// Package ctxutil carries the authenticated caller through a request context.
// It imports nothing from this module so any layer can use it.
package ctxutil

import "context"

type callerKey struct{}

// WithCallerID returns a context carrying the authenticated user id
func WithCallerID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFromContext returns the authenticated user id, or "" for an anonymous request
func CallerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey{}).(string); ok {
		return v
	}
	return ""
}
