package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"benchtrack.org/internal/qrauth"
)

// Tokens returns the QR token store.
func (s *Store) Tokens() qrauth.TokenStore { return &tokenStore{db: s.db} }

type tokenStore struct{ db *sql.DB }

var _ qrauth.TokenStore = (*tokenStore)(nil)

func (s *tokenStore) Insert(ctx context.Context, t *qrauth.Token) error {
	_, err := s.db.ExecContext(ctx,
		`insert into qr_tokens(id, token, user_id, expires_at, created_at)
		 values($1,$2,$3,$4,$5)`,
		t.ID, t.Token, t.UserID, t.ExpiresAt, t.CreatedAt,
	)
	return err
}

// Consume is the at-most-once redemption: one conditional UPDATE that only
// matches a live, unused row. Losing racers see zero rows and get the
// uniform invalid-or-expired error.
func (s *tokenStore) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`update qr_tokens set used_at=$2
		 where token=$1 and used_at is null and expires_at > $2
		 returning user_id`,
		token, now,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", qrauth.ErrInvalidOrExpired
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *tokenStore) Find(ctx context.Context, token string) (*qrauth.Token, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, token, user_id, expires_at, used_at, created_at
		 from qr_tokens where token=$1`, token)
	var (
		t      qrauth.Token
		usedAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &usedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, qrauth.ErrInvalidOrExpired
		}
		return nil, err
	}
	if usedAt.Valid {
		used := usedAt.Time
		t.UsedAt = &used
	}
	return &t, nil
}
