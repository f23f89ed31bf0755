package qrauth

import "errors"

var (
	// ErrInvalidOrExpired covers every redemption failure: unknown token,
	// expired token, already-used token. Deliberately one signal so callers
	// cannot probe which case occurred.
	ErrInvalidOrExpired = errors.New("qrauth: invalid or expired token")

	// ErrUnknownUser is returned by Issue when the target account does not
	// exist.
	ErrUnknownUser = errors.New("qrauth: unknown user")
)
