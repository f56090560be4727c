package services

import "errors"

var (
	// ErrInvalidInput indicates a malformed or missing field.
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the caller is known but not entitled, e.g. no subscription.
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	// ErrUpstream wraps failures of third-party APIs.
	ErrUpstream = errors.New("upstream error")
)
