package session

import (
	"context"

	"benchtrack.org/internal/directory"
)

type userContextKey struct{}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, u *directory.User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*directory.User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(userContextKey{}).(*directory.User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}
