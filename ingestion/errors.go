package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrInvalidBatchSize is returned when the batch size is outside 1..MaxBatchSize.
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 100")

	// ErrInvalidConcurrency is returned when the concurrency ceiling is below 1.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

	// ErrInvalidTimeout is returned when the batch timeout is negative.
	ErrInvalidTimeout = errors.New("batch timeout cannot be negative")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingCountMismatch is returned when the embedder returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
