package store

import "errors"

var (
	// ErrNotFound is returned when a queried document does not exist.
	ErrNotFound = errors.New("document is not found")
)
