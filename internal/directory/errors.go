package directory

import "errors"

var (
	ErrNotFound      = errors.New("directory: not found")
	ErrAlreadyExists = errors.New("directory: already exists")
	ErrInvalidInput  = errors.New("directory: invalid input")
)
