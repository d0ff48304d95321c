package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidState          = errors.New("action not allowed in current state")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
