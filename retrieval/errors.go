package retrieval

import "errors"

var (
	// ErrEmptyContext signals that no chunk cleared the relevance threshold.
	// It is an expected outcome, not a failure: callers should branch on it
	// with errors.Is and substitute a fallback answer.
	ErrEmptyContext = errors.New("no relevant context found")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidFinalCount is returned when the final result count is below 1.
	ErrInvalidFinalCount = errors.New("final count must be at least 1")

	// ErrInvalidTopK is returned when topK does not exceed the final count.
	ErrInvalidTopK = errors.New("topK must be greater than the final count")

	// ErrInvalidMinScore is returned when the score threshold is outside [0,1).
	ErrInvalidMinScore = errors.New("minimum score must be in [0,1)")

	// ErrInvalidTimeout is returned for a negative call timeout.
	ErrInvalidTimeout = errors.New("timeout cannot be negative")
)
