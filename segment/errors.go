package segment

import "errors"

var (
	// ErrSegmentationMiss marks text that matched no structural pattern.
	// It is never returned from Segment; misses are reported in Result.Misses.
	ErrSegmentationMiss = errors.New("segmentation miss")

	// ErrNoPartHeading indicates text that appears before any part heading.
	ErrNoPartHeading = errors.New("text outside any part")

	// ErrInvalidHeaderPattern is returned when a header pattern does not compile.
	ErrInvalidHeaderPattern = errors.New("invalid header pattern")
)
