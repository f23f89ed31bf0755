package qrauth

import (
	"context"
	"time"
)

// TokenStore persists issued tokens. Consume carries the whole correctness
// burden: it must check validity and mark the token used in one atomic step
// (conditional update, not read-then-write), so that two concurrent calls on
// the same token string can never both succeed.
type TokenStore interface {
	Insert(ctx context.Context, t *Token) error

	// Consume atomically marks the token used and returns the owning user id.
	// Any failure (no such token, expired, already used) is ErrInvalidOrExpired.
	Consume(ctx context.Context, token string, now time.Time) (string, error)

	// Find returns the stored row by opaque token string, for audit surfaces.
	Find(ctx context.Context, token string) (*Token, error)
}
