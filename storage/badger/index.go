// Package badger implements storage.VectorIndex on an embedded BadgerDB database.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

// Index is a storage.VectorIndex backed by BadgerDB.
//
// Each record lives under its own key, so Upsert overwrites by chunk ID.
// Queries scan every record and score it by cosine similarity, which is
// exact and fast enough for a single statute of a few thousand chunks.
type Index struct {
	backend *Backend
	owned   bool
	logger  *slog.Logger

	// dimMu guards dimension and every read or write of dimensionKey.
	// Record transactions never touch that key, so concurrent batches
	// write disjoint keys and cannot conflict.
	dimMu     sync.Mutex
	dimension int
}

var _ storage.VectorIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger.With("component", "badger-index")
		return nil
	}
}

// NewIndex opens (or creates) an index stored in the directory at path.
// The returned index owns the database and closes it on Close.
func NewIndex(path string, opts ...Option) (storage.VectorIndex, error) {
	return openIndex(path, false, opts...)
}

func openIndex(path string, inMemory bool, opts ...Option) (*Index, error) {
	idx, err := newIndex(nil, opts...)
	if err != nil {
		return nil, err
	}
	backend, err := OpenBackend(path, inMemory, idx.logger)
	if err != nil {
		return nil, err
	}
	idx.backend = backend
	idx.owned = true
	return idx, nil
}

// newIndex creates an index over an existing backend.
func newIndex(backend *Backend, opts ...Option) (*Index, error) {
	idx := &Index{
		backend: backend,
		logger:  slog.Default().With("component", "badger-index"),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Close releases the index. The database is closed only when the index opened it.
func (idx *Index) Close() error {
	if !idx.owned || idx.backend.IsClosed() {
		return nil
	}
	return idx.backend.Close()
}

// Upsert stores records, replacing any existing record with the same ID.
// All records in one call are written in a single transaction.
func (idx *Index) Upsert(ctx context.Context, records []storage.Record) error {
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dim := len(records[0].Vector)
	for _, rec := range records {
		if rec.ID == "" || len(rec.Vector) == 0 {
			return fmt.Errorf("%w: id %q has %d dimensions", storage.ErrInvalidRecord, rec.ID, len(rec.Vector))
		}
		if len(rec.Vector) != dim {
			return fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(rec.Vector), dim)
		}
	}

	if err := idx.ensureDimension(dim); err != nil {
		return err
	}

	return idx.backend.WithTx(func(tx *badger.Txn) error {
		for _, rec := range records {
			value, err := marshalRecord(NormalizeVector(rec.Vector), rec.Payload)
			if err != nil {
				return err
			}
			if err := tx.Set(makeRecordKey(rec.ID), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ensureDimension records dim as the index dimension on first use and
// rejects any later dim that differs.
func (idx *Index) ensureDimension(dim int) error {
	idx.dimMu.Lock()
	defer idx.dimMu.Unlock()

	if idx.dimension == 0 {
		err := idx.backend.WithTx(func(tx *badger.Txn) error {
			stored, err := readDimension(tx)
			if err != nil {
				return err
			}
			if stored != 0 {
				idx.dimension = stored
				return nil
			}
			if err := tx.Set([]byte(dimensionKey), encodeDimension(dim)); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			idx.dimension = dim
			return nil
		}, true)
		if err != nil {
			return err
		}
	}

	if idx.dimension != dim {
		return fmt.Errorf("%w: got %d, index has %d", storage.ErrDimensionMismatch, dim, idx.dimension)
	}
	return nil
}

// Query scores every stored record against vector and returns the best topK.
// Scores are clamped to [0,1]. Records with equal scores stay in key order.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int) ([]storage.Match, error) {
	if idx.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if topK <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	query := NormalizeVector(vector)
	var matches []storage.Match

	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := iter.Item()
			var rec *storedRecord
			err := item.Value(func(val []byte) error {
				var err error
				rec, err = unmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(rec.Vector) != len(query) {
				return fmt.Errorf("%w: got %d, index has %d", storage.ErrDimensionMismatch, len(query), len(rec.Vector))
			}

			matches = append(matches, storage.Match{
				ID:      recordIDFromKey(item.Key()),
				Score:   core.ClampScore(dotProduct(query, rec.Vector)),
				Payload: rec.Payload,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Iteration is in key order, so a stable sort keeps ties in key order
	slices.SortStableFunc(matches, func(a, b storage.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	idx.logger.Debug("query complete", "topK", topK, "returned", len(matches))
	return matches, nil
}

// DescribeStats counts stored records and reports their dimension.
func (idx *Index) DescribeStats(ctx context.Context) (storage.Stats, error) {
	if idx.backend.IsClosed() {
		return storage.Stats{}, storage.ErrStorageClosed
	}

	var stats storage.Stats
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		stats.Dimension = dim

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			stats.Count++
		}
		return ctx.Err()
	}, false)
	return stats, err
}

// DeleteAll drops every record and forgets the dimension.
func (idx *Index) DeleteAll(ctx context.Context) error {
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.dimMu.Lock()
	defer idx.dimMu.Unlock()
	if err := idx.backend.DropPrefix([]byte(vectorRecordPrefix), []byte(indexMetaPrefix)); err != nil {
		return err
	}
	idx.dimension = 0
	idx.logger.Info("index cleared")
	return nil
}

// readDimension returns the stored dimension, or 0 when nothing has been written.
func readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(dimensionKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var dim int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: dimension key holds %d bytes", storage.ErrSerializationFailed, len(val))
		}
		dim = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return dim, err
}

func encodeDimension(dim int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(dim))
	return buf
}
