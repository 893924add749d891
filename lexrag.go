// Package lexrag ties segmentation, chunking, ingestion, retrieval and
// answering together behind a single Engine.
package lexrag

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/answer"
	"github.com/poiesic/lexrag/chunking"
	"github.com/poiesic/lexrag/config"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/ingestion"
	"github.com/poiesic/lexrag/metrics"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/poiesic/lexrag/segment"
	"github.com/poiesic/lexrag/storage"
)

// Engine owns the clients and components for one document index.
type Engine struct {
	cfg       *config.Config
	provider  ai.AIProvider
	index     storage.VectorIndex
	segmenter *segment.Segmenter
	assembler *chunking.Assembler
	pipeline  *ingestion.Pipeline
	retriever *retrieval.Engine
	answerer  *answer.Answerer
	metrics   *metrics.Collector
	ownsIndex bool
	logger    *slog.Logger
}

// IngestReport summarizes one ingested document.
type IngestReport struct {
	Units      int
	Misses     int
	ChunkCount int
	Succeeded  int
	Failed     int
	Batches    int

	// FailedBatches lists the batches that did not reach the index.
	FailedBatches []ingestion.BatchFailure
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	index    storage.VectorIndex
	metrics  *metrics.Collector
	progress io.Writer
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the ai config.
// The Engine closes it on Close.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithIndex uses index instead of opening the configured backend.
// The caller keeps ownership and must close it.
func WithIndex(index storage.VectorIndex) EngineOption {
	return func(o *engineOptions) {
		o.index = index
	}
}

// WithMetrics records ingestion and retrieval metrics in c.
func WithMetrics(c *metrics.Collector) EngineOption {
	return func(o *engineOptions) {
		o.metrics = c
	}
}

// WithProgress writes ingestion progress to w.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger for the Engine and its components.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open validates cfg and constructs an Engine.
// Nothing is opened when validation fails.
func Open(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	e := &Engine{
		cfg:     cfg,
		metrics: options.metrics,
		logger:  logger.With("component", "engine"),
	}

	var err error
	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = newProvider(cfg.AIConfig()); err != nil {
			return nil, err
		}
	}

	e.index = options.index
	if e.index == nil {
		if e.index, err = openIndex(cfg); err != nil {
			e.provider.Close()
			return nil, err
		}
		e.ownsIndex = true
	}

	if err := e.build(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// build wires the components from the config.
func (e *Engine) build(options *engineOptions) error {
	cfg := e.cfg
	logger := options.logger
	embedder := e.provider.Embedder()

	var err error
	e.segmenter, err = segment.NewSegmenter(
		segment.WithHeaderPattern(cfg.Chunking.HeaderPattern),
		segment.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	assemblerOpts := []chunking.Option{
		chunking.WithChunkSize(cfg.Chunking.Size),
		chunking.WithOverlap(cfg.Chunking.Overlap),
		chunking.WithLogger(logger),
	}
	if cfg.Chunking.Widen {
		assemblerOpts = append(assemblerOpts, chunking.WithWidening(cfg.Chunking.Neighbors))
	}
	if e.assembler, err = chunking.NewAssembler(assemblerOpts...); err != nil {
		return err
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithBatchSize(cfg.Ingestion.BatchSize),
		ingestion.WithConcurrency(cfg.Ingestion.Concurrency),
		ingestion.WithBatchTimeout(cfg.Ingestion.BatchTimeout),
		ingestion.WithRetry(cfg.Ingestion.MaxAttempts, cfg.Ingestion.RetryDelay),
		ingestion.WithLogger(logger),
	}
	if options.progress != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithProgress(options.progress))
	}
	if e.metrics != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithObserver(e.metrics))
	}
	if e.pipeline, err = ingestion.NewPipeline(embedder, e.index, pipelineOpts...); err != nil {
		return err
	}

	retrievalOpts := []retrieval.Option{
		retrieval.WithTopK(cfg.Retrieval.TopK),
		retrieval.WithFinalCount(cfg.Retrieval.FinalCount),
		retrieval.WithMinScore(cfg.Retrieval.MinScore),
		retrieval.WithExcludeKeywords(cfg.Retrieval.ExcludeKeywords...),
		retrieval.WithRequireKeywords(cfg.Retrieval.RequireKeywords...),
		retrieval.WithQueryExpansion(cfg.Retrieval.QueryExpansion...),
		retrieval.WithTimeout(cfg.Retrieval.Timeout),
		retrieval.WithLogger(logger),
	}
	if e.metrics != nil {
		retrievalOpts = append(retrievalOpts, retrieval.WithMonitor(e.metrics))
	}
	if e.retriever, err = retrieval.NewEngine(embedder, e.index, retrievalOpts...); err != nil {
		return err
	}

	e.answerer, err = answer.NewAnswerer(e.retriever, e.provider.Generator(),
		answer.WithTemplateOptions(cfg.TemplateOptions()),
		answer.WithDocumentName(cfg.Generation.DocumentName),
		answer.WithFallback(cfg.Generation.Fallback),
		answer.WithTemperature(cfg.Generation.Temperature),
		answer.WithTimeout(cfg.Generation.Timeout),
		answer.WithLogger(logger),
	)
	return err
}

// Close releases the pipeline, the provider and, when the Engine opened it,
// the index. Safe to call more than once.
func (e *Engine) Close() error {
	var errs []error
	if e.pipeline != nil {
		e.pipeline.Release()
		e.pipeline = nil
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
		e.provider = nil
	}
	if e.index != nil && e.ownsIndex {
		if err := e.index.Close(); err != nil {
			e.logger.Error("error closing vector index", "err", err)
			errs = append(errs, err)
		}
	}
	e.index = nil
	return errors.Join(errs...)
}

// Index returns the vector index.
func (e *Engine) Index() storage.VectorIndex {
	return e.index
}

// IngestDocument segments raw text (pages separated by form feeds),
// assembles chunks and ingests them.
func (e *Engine) IngestDocument(ctx context.Context, raw string) (IngestReport, error) {
	if err := core.ValidateDocumentText(raw); err != nil {
		return IngestReport{}, err
	}
	return e.IngestPages(ctx, segment.SplitPages(raw))
}

// IngestPages ingests an already paged document.
//
// A ValidationError means nothing was sent to the index. Otherwise the
// error is nil and batch failures are reported in the IngestReport.
func (e *Engine) IngestPages(ctx context.Context, doc segment.Document) (IngestReport, error) {
	segmented, err := e.segmenter.Segment(doc)
	if err != nil {
		return IngestReport{}, err
	}
	for _, miss := range segmented.Misses {
		e.logger.Warn("segmentation miss", "page", miss.Page, "err", miss)
	}

	chunks := e.assembler.Assemble(segmented.Units)
	result, err := e.pipeline.Ingest(ctx, chunks)
	if err != nil {
		return IngestReport{}, err
	}

	report := IngestReport{
		Units:         len(segmented.Units),
		Misses:        len(segmented.Misses),
		ChunkCount:    len(chunks),
		Succeeded:     result.Succeeded,
		Failed:        result.Failed,
		Batches:       result.Batches,
		FailedBatches: result.FailedBatches,
	}
	e.logger.Info("document ingested", "units", report.Units, "chunks", report.ChunkCount,
		"succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// IngestChunks ingests pre-built chunks.
func (e *Engine) IngestChunks(ctx context.Context, chunks []*core.DocumentChunk) (ingestion.Result, error) {
	return e.pipeline.Ingest(ctx, chunks)
}

// Retrieve returns up to k ranked results for query; k <= 0 means the
// configured final count. Returns retrieval.ErrEmptyContext when nothing
// clears the threshold.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	return e.retriever.Retrieve(ctx, query, k)
}

// Answer answers question from retrieved context. history holds prior
// turns, oldest first.
func (e *Engine) Answer(ctx context.Context, question string, history []ai.Message) (answer.Response, error) {
	return e.answerer.Answer(ctx, question, history)
}

// Stats describes the index contents.
func (e *Engine) Stats(ctx context.Context) (storage.Stats, error) {
	return e.index.DescribeStats(ctx)
}

// Reset deletes every record in the index.
func (e *Engine) Reset(ctx context.Context) error {
	e.logger.Warn("deleting all records from the index")
	return e.index.DeleteAll(ctx)
}

// CreateIndex prepares the index for vectors of the configured dimension
// when the backend needs it. Backends without a schema ignore the call.
func (e *Engine) CreateIndex(ctx context.Context) error {
	creator, ok := e.index.(storage.IndexCreator)
	if !ok {
		e.logger.Info("index backend needs no creation", "backend", e.cfg.Index.Backend)
		return nil
	}
	return creator.CreateIndex(ctx, e.cfg.Index.Dimension)
}
