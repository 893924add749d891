package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

const (
	// MaxBatchSize is the largest batch the index collaborator accepts.
	MaxBatchSize = 100

	// DefaultBatchSize is the number of chunks embedded and upserted together.
	DefaultBatchSize = MaxBatchSize

	// DefaultConcurrency is the number of batches allowed in flight at once.
	DefaultConcurrency = 3

	// DefaultBatchTimeout bounds a single attempt at one batch.
	DefaultBatchTimeout = 2 * time.Minute
)

// Result summarizes an ingestion run.
// Succeeded + Failed always equals the number of chunks submitted.
type Result struct {
	Batches   int
	Succeeded int
	Failed    int

	// FailedBatches lists failures in batch order.
	FailedBatches []BatchFailure
}

// BatchFailure describes one batch that did not make it into the index.
type BatchFailure struct {
	BatchInfo
	Err error
}

// Pipeline embeds chunks and upserts them into a vector index in
// size-capped batches on a bounded worker pool.
//
// A failing batch never affects its siblings: the error is logged with the
// batch's chunk-id range and counted in the Result. Ingest itself returns an
// error only for input that fails validation, before any batch is sent.
type Pipeline struct {
	embedder     ai.Embedder
	index        storage.VectorIndex
	pool         *ants.Pool
	batchSize    int
	concurrency  int
	batchTimeout time.Duration
	maxAttempts  int
	retryDelay   time.Duration
	observers    multiObserver
	progress     io.Writer
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets the number of chunks per batch.
// Default is DefaultBatchSize; values above MaxBatchSize are rejected.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 || size > MaxBatchSize {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithConcurrency sets the maximum number of batches in flight.
// Default is DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		p.concurrency = n
		return nil
	}
}

// WithBatchTimeout bounds each attempt at a batch. Zero disables the timeout.
// Default is DefaultBatchTimeout.
func WithBatchTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout < 0 {
			return ErrInvalidTimeout
		}
		p.batchTimeout = timeout
		return nil
	}
}

// WithRetry retries a failed batch up to maxAttempts times in total with
// exponential backoff starting at baseDelay. Retrying is safe because
// upsert overwrites by chunk ID. Default is a single attempt.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithObserver adds a batch observer. May be given more than once.
func WithObserver(observer BatchObserver) Option {
	return func(p *Pipeline) error {
		if observer != nil {
			p.observers = append(p.observers, observer)
		}
		return nil
	}
}

// WithProgress writes a progress line to w during each Ingest call.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
// Call Release when done to stop the worker pool.
func NewPipeline(embedder ai.Embedder, index storage.VectorIndex, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		embedder:     embedder,
		index:        index,
		batchSize:    DefaultBatchSize,
		concurrency:  DefaultConcurrency,
		batchTimeout: DefaultBatchTimeout,
		maxAttempts:  1,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Submit blocks while all workers are busy
	pool, err := ants.NewPool(p.concurrency)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// Ingest embeds and upserts chunks, returning aggregate counts.
//
// Chunks are validated first; a ValidationError aborts the run before any
// batch is submitted. After that, every batch runs to completion or failure
// independently and the returned error is nil. Each chunk's Embedding is set
// once its batch has been embedded.
func (p *Pipeline) Ingest(ctx context.Context, chunks []*core.DocumentChunk) (Result, error) {
	if err := core.ValidateChunks(chunks); err != nil {
		return Result{}, err
	}
	if len(chunks) == 0 {
		return Result{}, nil
	}

	batches := splitBatches(chunks, p.batchSize)
	result := Result{Batches: len(batches)}

	var progress *ProgressTracker
	if p.progress != nil {
		progress = NewProgressTracker(p.progress, len(chunks), p.batchSize)
		progress.Start()
		defer progress.Finish()
	}

	p.logger.Info("ingesting chunks", "chunks", len(chunks), "batches", len(batches),
		"batchSize", p.batchSize, "concurrency", p.concurrency)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures = make([]*BatchFailure, len(batches))
	)

	record := func(b batch, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Failed += len(b.chunks)
			failures[b.index] = &BatchFailure{BatchInfo: b.info(), Err: err}
		} else {
			result.Succeeded += len(b.chunks)
		}
		if progress != nil {
			failed := 0
			if err != nil {
				failed = len(b.chunks)
			}
			progress.Increment(len(b.chunks), failed)
		}
	}

	for _, b := range batches {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			record(b, p.runBatch(ctx, b))
		})
		if err != nil {
			wg.Done()
			p.logger.Error("batch not submitted", "batch", b.index, "err", err)
			record(b, err)
		}
	}
	wg.Wait()

	for _, f := range failures {
		if f != nil {
			result.FailedBatches = append(result.FailedBatches, *f)
		}
	}

	p.logger.Info("ingestion complete", "succeeded", result.Succeeded, "failed", result.Failed,
		"failedBatches", len(result.FailedBatches))
	return result, nil
}

// runBatch processes one batch with retry and reports it to the observers.
func (p *Pipeline) runBatch(ctx context.Context, b batch) error {
	info := b.info()
	p.observers.BatchStarted(info)
	start := time.Now()

	logger := p.logger.With("batch", info.Index, "firstID", info.FirstID)
	err := RetryWithBackoff(ctx, logger, p.maxAttempts, p.retryDelay, func(int) error {
		return p.attempt(ctx, b)
	})

	elapsed := time.Since(start)
	p.observers.BatchFinished(info, elapsed, err)

	if err != nil {
		p.logger.Error("batch failed",
			"batch", info.Index,
			"firstID", info.FirstID,
			"lastID", info.LastID,
			"size", info.Size,
			"timeout", errors.Is(err, context.DeadlineExceeded),
			"err", err)
		return err
	}

	p.logger.Debug("batch complete", "batch", info.Index, "size", info.Size, "elapsed", elapsed)
	return nil
}

// attempt embeds every chunk in the batch, then upserts them in one call.
func (p *Pipeline) attempt(ctx context.Context, b batch) error {
	if p.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.batchTimeout)
		defer cancel()
	}

	texts := make([]string, len(b.chunks))
	for i, chunk := range b.chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return core.NewProviderError("embed", err)
	}
	if len(vectors) != len(texts) {
		return core.NewProviderError("embed",
			fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(texts), len(vectors)))
	}

	records := make([]storage.Record, len(b.chunks))
	for i, chunk := range b.chunks {
		chunk.Embedding = vectors[i]
		records[i] = storage.Record{
			ID:      chunk.ID,
			Vector:  vectors[i],
			Payload: core.Payload(chunk),
		}
	}

	if err := p.index.Upsert(ctx, records); err != nil {
		return core.NewProviderError("upsert", err)
	}
	return nil
}

// Release stops the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
