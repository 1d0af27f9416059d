// Package requestid carries per-request and per-session identifiers through
// a context so logs from the HTTP layer, the live session, and the posts
// client can be correlated.
package requestid

import "context"

type (
	requestKey struct{}
	sessionKey struct{}
)

// NewContext returns a context that carries the given request ID.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

// FromContext returns the request ID stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestKey{}).(string)
	return id
}

// WithSession returns a context that carries a live session ID.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the live session ID stored in ctx, or an empty string.
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
