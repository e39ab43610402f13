package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services. Handlers map these onto HTTP
// statuses with errors.Is, so wrapped errors still classify correctly.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("access denied")
	ErrConflict       = errors.New("conflict with current state")
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCapacityExceeded wraps ErrConflict: a full session is a state
	// conflict, not a validation failure.
	ErrCapacityExceeded = fmt.Errorf("%w: not enough seats remaining", ErrConflict)
)
