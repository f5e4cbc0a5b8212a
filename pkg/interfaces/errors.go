package interfaces

import "errors"

// Common errors shared across collaborator implementations.
var (
	// ErrNotFound is returned by lookups that matched nothing.
	ErrNotFound = errors.New("not found")
)
