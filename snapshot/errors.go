package snapshot

import "errors"

var (
	// ErrNotFound is returned when a page or build lookup fails.
	ErrNotFound = errors.New("not found")

	// ErrUnknownConnectionPages is returned when we attempt to create a
	// connection with an invalid origin, target & / or build ID.
	ErrUnknownConnectionPages = errors.New("unknown origin, target and / or build")
)
