// Package auth carries the authenticated caller through a request.
//
// Handlers never look up "the current user" from ambient state; the session
// middleware resolves an Identity once per request and every operation that
// needs one receives it explicitly.
package auth

import "context"

type ctxKey struct{}

// Identity is the logged-in user a request acts for.
type Identity struct {
	UserID   int
	Username string
}

// Anonymous reports whether the identity carries no user.
func (i Identity) Anonymous() bool {
	return i.UserID == 0
}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.Anonymous() {
		return Identity{}, false
	}
	return id, true
}
