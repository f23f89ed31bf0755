// Package qrauth implements the QR login token workflow: single-use,
// time-bounded credentials an admin hands to a user as a scannable code.
// Redeeming a token proves ownership of the matching account without going
// through the regular identity-provider login.
package qrauth

import "time"

// Token is one issued QR credential. Rows are never deleted; UsedAt doubles
// as the consumption marker and the audit trail. A token is redeemable iff
// UsedAt is nil and ExpiresAt is in the future.
type Token struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	UserID    string     `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Redeemable reports whether the token can still be consumed at the given
// instant.
func (t *Token) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
