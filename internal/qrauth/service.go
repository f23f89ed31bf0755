package qrauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/ids"
	"benchtrack.org/internal/obs"
)

// DefaultTTL is how long an issued QR token stays redeemable.
const DefaultTTL = 15 * time.Minute

// Service issues and redeems QR login tokens.
type Service struct {
	store TokenStore
	users directory.UserStore
	now   func() time.Time
	ttl   time.Duration
}

// Option configures Service behavior.
type Option func(*Service)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service over the given token store and user lookup.
func NewService(store TokenStore, users directory.UserStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		users: users,
		now:   time.Now,
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a fresh single-use token for the given user and returns the
// opaque token string. Authorization (admin-only) is the caller's concern.
// Every call produces an independent row; multiple live tokens per user may
// coexist.
func (s *Service) Issue(ctx context.Context, userID string) (string, error) {
	if _, err := s.users.Find(ctx, userID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return "", ErrUnknownUser
		}
		return "", fmt.Errorf("qrauth: look up user: %w", err)
	}

	now := s.now().UTC()
	t := &Token{
		ID:        ids.New(),
		Token:     uuid.NewString(), // v4: 122 bits of entropy
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return "", fmt.Errorf("qrauth: persist token: %w", err)
	}
	obs.TokenIssued()
	return t.Token, nil
}

// Redeem consumes the token at most once and returns the owning user.
// Expiry is checked lazily here; there is no background sweep. All failure
// modes collapse into ErrInvalidOrExpired.
func (s *Service) Redeem(ctx context.Context, token string) (*directory.User, error) {
	if token == "" {
		obs.TokenRejected()
		return nil, ErrInvalidOrExpired
	}
	userID, err := s.store.Consume(ctx, token, s.now().UTC())
	if err != nil {
		obs.TokenRejected()
		if errors.Is(err, ErrInvalidOrExpired) {
			return nil, ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("qrauth: consume token: %w", err)
	}
	u, err := s.users.Find(ctx, userID)
	if err != nil {
		// The token burned but its owner is gone; treat as invalid rather
		// than leak the distinction.
		obs.TokenRejected()
		return nil, ErrInvalidOrExpired
	}
	obs.TokenRedeemed()
	return u, nil
}
