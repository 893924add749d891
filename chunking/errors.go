package chunking

import "errors"

var (
	// ErrInvalidChunkSize is returned when the window size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap is returned when the overlap is negative or not smaller than the window size.
	ErrInvalidOverlap = errors.New("overlap must be non-negative and smaller than chunk size")

	// ErrInvalidNeighbors is returned when the widening neighbor count is negative.
	ErrInvalidNeighbors = errors.New("neighbor count cannot be negative")
)
