package requests

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("requests: not found")
	ErrValidation = errors.New("requests: invalid input")
	ErrConflict   = errors.New("requests: conflict")

	// ErrComponentMismatch and ErrNotPending are Conflict refinements;
	// errors.Is(err, ErrConflict) holds for both.
	ErrComponentMismatch = fmt.Errorf("%w: scanned component does not match request", ErrConflict)
	ErrNotPending        = fmt.Errorf("%w: request is not pending", ErrConflict)
)
