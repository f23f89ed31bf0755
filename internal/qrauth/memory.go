package qrauth

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements TokenStore with in-process concurrency safety.
// Used by tests and the no-database dev mode.
type InMemoryStore struct {
	mu     sync.Mutex
	byTok  map[string]*Token
	byUser map[string][]string
}

var _ TokenStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty token store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byTok:  make(map[string]*Token),
		byUser: make(map[string][]string),
	}
}

func (s *InMemoryStore) Insert(ctx context.Context, t *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.byTok[t.Token] = &cp
	s.byUser[t.UserID] = append(s.byUser[t.UserID], t.Token)
	return nil
}

func (s *InMemoryStore) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byTok[token]
	if !ok || !t.Redeemable(now) {
		return "", ErrInvalidOrExpired
	}
	used := now
	t.UsedAt = &used
	return t.UserID, nil
}

func (s *InMemoryStore) Find(ctx context.Context, token string) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byTok[token]
	if !ok {
		return nil, ErrInvalidOrExpired
	}
	cp := *t
	if t.UsedAt != nil {
		used := *t.UsedAt
		cp.UsedAt = &used
	}
	return &cp, nil
}
