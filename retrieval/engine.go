package retrieval

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

const (
	// DefaultTopK is the number of candidates requested from the index.
	DefaultTopK = 15

	// DefaultFinalCount is the number of results returned after filtering.
	DefaultFinalCount = 5

	// DefaultMinScore is the exclusive lower bound on accepted scores.
	DefaultMinScore float32 = 0.3

	// DefaultTimeout bounds each embedding and index call.
	DefaultTimeout = 30 * time.Second
)

// Engine retrieves ranked, filtered chunks for a query.
//
// A call embeds the query once, asks the index for topK candidates, drops
// those at or below the score threshold or failing the keyword rules, then
// stable-sorts the rest by descending score and keeps the best k.
type Engine struct {
	embedder   ai.Embedder
	index      storage.VectorIndex
	topK       int
	finalCount int
	filter     filter
	expansion  []string
	timeout    time.Duration
	monitor    Monitor
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithTopK sets how many candidates are requested from the index.
// Must exceed the final count. Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(e *Engine) error {
		e.topK = topK
		return nil
	}
}

// WithFinalCount sets how many results Retrieve returns when k is not positive.
// Default is DefaultFinalCount.
func WithFinalCount(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return ErrInvalidFinalCount
		}
		e.finalCount = n
		return nil
	}
}

// WithMinScore sets the score threshold. Results must score strictly above it.
// Default is DefaultMinScore.
func WithMinScore(score float32) Option {
	return func(e *Engine) error {
		if score < 0 || score >= 1 {
			return ErrInvalidMinScore
		}
		e.filter.minScore = score
		return nil
	}
}

// WithExcludeKeywords drops results whose text contains any of the phrases.
// Matching is case-insensitive on whole words.
func WithExcludeKeywords(phrases ...string) Option {
	return func(e *Engine) error {
		e.filter.exclude = newKeywords(phrases)
		return nil
	}
}

// WithRequireKeywords keeps only results whose text contains at least one
// of the phrases. Matching is case-insensitive on whole words.
func WithRequireKeywords(phrases ...string) Option {
	return func(e *Engine) error {
		e.filter.require = newKeywords(phrases)
		return nil
	}
}

// WithQueryExpansion appends terms to the query before it is embedded.
// Terms the query already mentions are skipped.
func WithQueryExpansion(terms ...string) Option {
	return func(e *Engine) error {
		e.expansion = slices.Clone(terms)
		return nil
	}
}

// WithTimeout bounds each embedding and index call separately.
// Zero disables the bound. Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d < 0 {
			return ErrInvalidTimeout
		}
		e.timeout = d
		return nil
	}
}

// WithMonitor sets a monitor that observes every Retrieve call.
func WithMonitor(monitor Monitor) Option {
	return func(e *Engine) error {
		if monitor == nil {
			monitor = noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new retrieval engine.
func NewEngine(embedder ai.Embedder, index storage.VectorIndex, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	e := &Engine{
		embedder:   embedder,
		index:      index,
		topK:       DefaultTopK,
		finalCount: DefaultFinalCount,
		filter:     filter{minScore: DefaultMinScore},
		timeout:    DefaultTimeout,
		monitor:    noopMonitor{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.topK <= e.finalCount {
		return nil, ErrInvalidTopK
	}
	e.logger = e.logger.With("component", "retrieval")

	return e, nil
}

// Retrieve returns up to k results for query, best first.
// A k of zero or less means the configured final count.
//
// When no candidate survives filtering the error is ErrEmptyContext.
// Embedding and index failures are returned as a core.ProviderError; no
// partial results are returned with them.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = e.finalCount
	}

	// Keep the candidate pool larger than the result count
	topK := max(e.topK, k*3)

	start := time.Now()
	e.monitor.Start(query)

	results, err := e.retrieve(ctx, query, k, topK)
	e.monitor.Finish(results, time.Since(start), err)

	return results, err
}

func (e *Engine) retrieve(ctx context.Context, query string, k, topK int) ([]core.SearchResult, error) {
	text := expandQuery(query, e.expansion)

	callCtx, cancel := e.callContext(ctx)
	vector, err := e.embedder.EmbedText(callCtx, text)
	cancel()
	if err != nil {
		e.logger.Error("error generating embedding for query", "err", err)
		return nil, core.NewProviderError("embed", err)
	}
	e.monitor.AfterEmbedding(len(vector))

	callCtx, cancel = e.callContext(ctx)
	matches, err := e.index.Query(callCtx, vector, topK)
	cancel()
	if err != nil {
		e.logger.Error("error querying index", "topK", topK, "err", err)
		return nil, core.NewProviderError("query", err)
	}
	e.monitor.AfterQuery(matches)

	candidates := make([]core.SearchResult, 0, len(matches))
	for _, m := range matches {
		r := core.ResultFromPayload(m.Score, m.Payload)
		if r.ID == "" {
			r.ID = m.ID
		}
		candidates = append(candidates, r)
	}

	results := e.filter.apply(candidates)
	e.monitor.AfterFilter(len(candidates), len(results))

	// Equal scores keep index order
	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(results) > k {
		results = results[:k]
	}

	e.logger.Debug("retrieval complete", "candidates", len(candidates), "returned", len(results))

	if len(results) == 0 {
		return nil, ErrEmptyContext
	}
	return results, nil
}

// callContext derives the context for one provider call.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}
