package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrForbidden is returned when a caller does not own the session it addresses.
var ErrForbidden = errors.New("session belongs to another user")

var (
	ErrEmptyName       = errors.New("concept name is empty")
	ErrConceptNotFound = errors.New("concept not found")
	ErrConceptExists   = errors.New("concept already exists")
	ErrCyclicReference = errors.New("cyclic extraction reference")
	ErrInvalidField    = errors.New("invalid field")
)
