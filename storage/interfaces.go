package storage

import "context"

// Record is a single vector with its metadata, keyed by chunk ID.
// Payload values must already be sanitized (strings, numbers, booleans,
// string slices).
type Record struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Match is a record returned from a similarity query.
type Match struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Stats describes the contents of an index.
type Stats struct {
	Count     int64
	Dimension int
}

// VectorIndex is the storage abstraction for chunk embeddings.
//
// Implementations must overwrite on ID: upserting a record whose ID already
// exists replaces it, so re-running an ingestion is idempotent.
type VectorIndex interface {
	// Upsert stores records in a single call.
	Upsert(ctx context.Context, records []Record) error

	// Query returns at most topK records ordered by descending score.
	// Records with equal scores keep a stable, implementation-defined order.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)

	// DescribeStats reports the number of stored records and their dimension.
	DescribeStats(ctx context.Context) (Stats, error)

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// Close releases resources held by the index.
	Close() error
}

// IndexCreator is implemented by indexes that must be provisioned before use.
type IndexCreator interface {
	// CreateIndex provisions the index for vectors of the given dimension.
	// It is a no-op when the index already exists.
	CreateIndex(ctx context.Context, dimension int) error
}
