package sessionstore

import "errors"

var (
	// ErrNotFound is returned when a key is absent from the store.
	ErrNotFound = errors.New("session store: key not found")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("session store: closed")

	// ErrUnavailable is returned when the backing medium rejected a
	// write; the in-memory image still reflects the mutation.
	ErrUnavailable = errors.New("session store: backing store unavailable")
)
