package domain

import "errors"

// Domain errors represent contract violations by the caller, as
// opposed to environmental failures which the engine recovers from
// locally.
var (
	// ErrInvalidChunkConfig indicates a chunker configuration where the
	// overlap is not strictly smaller than the chunk size, or a
	// non-positive chunk size.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrMissingProvider indicates the embedding provider is not configured.
	ErrMissingProvider = errors.New("embedding provider not configured")
)
