package domain

import "errors"

var (
	// ErrMalformedInput marks bad tabular input. Surfaced to the submitting
	// client; nothing is persisted when it occurs.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound marks a lookup for a job or item that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrItemProcessed marks an attempt to mutate an item a second time.
	ErrItemProcessed = errors.New("item already processed")
)
