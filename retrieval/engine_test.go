package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/lexrag/ai/mock"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
	"github.com/poiesic/lexrag/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedIndex is a storage.VectorIndex that returns fixed matches.
type cannedIndex struct {
	matches []storage.Match
	err     error
	topK    int
}

func (c *cannedIndex) Upsert(ctx context.Context, records []storage.Record) error { return nil }

func (c *cannedIndex) Query(ctx context.Context, vector []float32, topK int) ([]storage.Match, error) {
	c.topK = topK
	if c.err != nil {
		return nil, c.err
	}
	if len(c.matches) > topK {
		return c.matches[:topK], nil
	}
	return c.matches, nil
}

func (c *cannedIndex) DescribeStats(ctx context.Context) (storage.Stats, error) {
	return storage.Stats{Count: int64(len(c.matches))}, nil
}

func (c *cannedIndex) DeleteAll(ctx context.Context) error { return nil }

func (c *cannedIndex) Close() error { return nil }

func match(id string, score float32, text string) storage.Match {
	return storage.Match{
		ID:    id,
		Score: score,
		Payload: map[string]any{
			core.PayloadChunkID: id,
			core.PayloadText:    text,
		},
	}
}

func resultIDs(results []core.SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func newTestEngine(t *testing.T, index storage.VectorIndex, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(mock.NewMockEmbedder(), index, opts...)
	require.NoError(t, err)
	return e
}

func TestNewEngine(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := &cannedIndex{}

	t.Run("defaults", func(t *testing.T) {
		e, err := NewEngine(embedder, index)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, e.topK)
		assert.Equal(t, DefaultFinalCount, e.finalCount)
		assert.Equal(t, DefaultMinScore, e.filter.minScore)
		assert.Equal(t, DefaultTimeout, e.timeout)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewEngine(nil, index)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewEngine(embedder, nil)
		assert.ErrorIs(t, err, ErrIndexRequired)
	})

	t.Run("topK must exceed final count", func(t *testing.T) {
		_, err := NewEngine(embedder, index, WithTopK(5), WithFinalCount(5))
		assert.ErrorIs(t, err, ErrInvalidTopK)
	})

	t.Run("invalid final count", func(t *testing.T) {
		_, err := NewEngine(embedder, index, WithFinalCount(0))
		assert.ErrorIs(t, err, ErrInvalidFinalCount)
	})

	t.Run("invalid min score", func(t *testing.T) {
		_, err := NewEngine(embedder, index, WithMinScore(1))
		assert.ErrorIs(t, err, ErrInvalidMinScore)
		_, err = NewEngine(embedder, index, WithMinScore(-0.1))
		assert.ErrorIs(t, err, ErrInvalidMinScore)
	})
}

func TestRetrieve_ThresholdIsStrict(t *testing.T) {
	index := &cannedIndex{matches: []storage.Match{
		match("at", 0.30, "exactly at threshold"),
		match("above", 0.31, "just above threshold"),
		match("below", 0.29, "below threshold"),
	}}
	e := newTestEngine(t, index)

	results, err := e.Retrieve(context.Background(), "board duties", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"above"}, resultIDs(results))
}

func TestRetrieve_SortsDescending(t *testing.T) {
	index := &cannedIndex{matches: []storage.Match{
		match("a", 0.9, "a"),
		match("b", 0.5, "b"),
		match("c", 0.95, "c"),
	}}
	e := newTestEngine(t, index)

	results, err := e.Retrieve(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, resultIDs(results))
	assert.Equal(t, []float32{0.95, 0.9, 0.5}, []float32{results[0].Score, results[1].Score, results[2].Score})
}

func TestRetrieve_TiesKeepIndexOrder(t *testing.T) {
	index := &cannedIndex{matches: []storage.Match{
		match("first", 0.7, "first"),
		match("top", 0.8, "top"),
		match("second", 0.7, "second"),
		match("third", 0.7, "third"),
	}}
	e := newTestEngine(t, index)

	results, err := e.Retrieve(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "first", "second", "third"}, resultIDs(results))
}

func TestRetrieve_TruncatesToFinalCount(t *testing.T) {
	matches := make([]storage.Match, 0, 20)
	for i := 0; i < 20; i++ {
		matches = append(matches, match(fmt.Sprintf("m%02d", i), 0.99-float32(i)*0.01, "text"))
	}
	index := &cannedIndex{matches: matches}
	e := newTestEngine(t, index)

	results, err := e.Retrieve(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, index.topK)
	assert.Equal(t, []string{"m00", "m01", "m02", "m03", "m04"}, resultIDs(results))

	results, err = e.Retrieve(context.Background(), "query", 8)
	require.NoError(t, err)
	assert.Equal(t, 24, index.topK, "pool grows with k")
	assert.Len(t, results, 8)
}

func TestRetrieve_EmptyContext(t *testing.T) {
	t.Run("no matches", func(t *testing.T) {
		e := newTestEngine(t, &cannedIndex{})
		results, err := e.Retrieve(context.Background(), "query", 5)
		assert.ErrorIs(t, err, ErrEmptyContext)
		assert.Empty(t, results)
	})

	t.Run("all filtered", func(t *testing.T) {
		e := newTestEngine(t, &cannedIndex{matches: []storage.Match{match("low", 0.1, "low")}})
		results, err := e.Retrieve(context.Background(), "query", 5)
		assert.ErrorIs(t, err, ErrEmptyContext)
		assert.Empty(t, results)
	})
}

func TestRetrieve_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		e := newTestEngine(t, &cannedIndex{})
		_, err := e.Retrieve(context.Background(), "   ", 5)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("embedding failure", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		cause := errors.New("rate limited")
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, cause
		}
		e, err := NewEngine(embedder, &cannedIndex{})
		require.NoError(t, err)

		results, err := e.Retrieve(context.Background(), "query", 5)
		assert.Nil(t, results)
		assert.ErrorIs(t, err, core.ErrProvider)
		assert.ErrorIs(t, err, cause)
		var perr *core.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "embed", perr.Op)
	})

	t.Run("query failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		e := newTestEngine(t, &cannedIndex{err: cause})

		results, err := e.Retrieve(context.Background(), "query", 5)
		assert.Nil(t, results)
		assert.ErrorIs(t, err, core.ErrProvider)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrEmptyContext)
	})
}

func TestRetrieve_KeywordFilters(t *testing.T) {
	index := &cannedIndex{matches: []storage.Match{
		match("budget", 0.9, "The board shall prepare a budget."),
		match("repealed", 0.85, "Repealed by the Statute Law Amendment Act."),
		match("reserve", 0.8, "Reserve fund studies are required."),
		match("budgetary", 0.75, "Budgetary matters."),
	}}

	t.Run("exclude", func(t *testing.T) {
		e := newTestEngine(t, index, WithExcludeKeywords("repealed"))
		results, err := e.Retrieve(context.Background(), "query", 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"budget", "reserve", "budgetary"}, resultIDs(results))
	})

	t.Run("require matches whole words", func(t *testing.T) {
		e := newTestEngine(t, index, WithRequireKeywords("BUDGET", "reserve fund"))
		results, err := e.Retrieve(context.Background(), "query", 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"budget", "reserve"}, resultIDs(results))
	})

	t.Run("everything excluded", func(t *testing.T) {
		e := newTestEngine(t, index, WithRequireKeywords("quorum"))
		_, err := e.Retrieve(context.Background(), "query", 5)
		assert.ErrorIs(t, err, ErrEmptyContext)
	})
}

func TestRetrieve_QueryExpansion(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var mu sync.Mutex
	var seen []string
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		seen = append(seen, text)
		mu.Unlock()
		return mock.DeterministicVector(text, 8), nil
	}

	index := &cannedIndex{matches: []storage.Match{match("a", 0.9, "a")}}
	e, err := NewEngine(embedder, index, WithQueryExpansion("duties", "powers authority"))
	require.NoError(t, err)

	_, err = e.Retrieve(context.Background(), "What are the duties of the board?", 5)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "What are the duties of the board? powers authority", seen[0])
}

func TestRetrieve_PayloadWithoutChunkID(t *testing.T) {
	index := &cannedIndex{matches: []storage.Match{{
		ID:      "fallback-id",
		Score:   0.8,
		Payload: map[string]any{core.PayloadText: "text", core.PayloadSectionTitle: "Duties"},
	}}}
	e := newTestEngine(t, index)

	results, err := e.Retrieve(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fallback-id", results[0].ID)
	assert.Equal(t, "Duties", results[0].Citation.Title)
}

// recordingMonitor captures the hooks called for a single Retrieve.
type recordingMonitor struct {
	started   string
	dimension int
	matched   int
	kept      int
	results   int
	err       error
	finished  bool
}

func (m *recordingMonitor) Start(query string)                 { m.started = query }
func (m *recordingMonitor) AfterEmbedding(dimension int)       { m.dimension = dimension }
func (m *recordingMonitor) AfterQuery(matches []storage.Match) { m.matched = len(matches) }
func (m *recordingMonitor) AfterFilter(candidates, kept int)   { m.kept = kept }
func (m *recordingMonitor) Finish(results []core.SearchResult, elapsed time.Duration, err error) {
	m.results = len(results)
	m.err = err
	m.finished = true
}

func TestRetrieve_Monitor(t *testing.T) {
	index := &cannedIndex{matches: []storage.Match{
		match("a", 0.9, "a"),
		match("b", 0.2, "b"),
	}}
	monitor := &recordingMonitor{}
	e := newTestEngine(t, index, WithMonitor(monitor))

	_, err := e.Retrieve(context.Background(), "board", 5)
	require.NoError(t, err)
	assert.Equal(t, "board", monitor.started)
	assert.Equal(t, mock.DefaultDimension, monitor.dimension)
	assert.Equal(t, 2, monitor.matched)
	assert.Equal(t, 1, monitor.kept)
	assert.Equal(t, 1, monitor.results)
	assert.NoError(t, monitor.err)
	assert.True(t, monitor.finished)

	e = newTestEngine(t, &cannedIndex{}, WithMonitor(monitor))
	_, err = e.Retrieve(context.Background(), "board", 5)
	assert.ErrorIs(t, monitor.err, ErrEmptyContext)
}

func TestRetrieve_WithBadgerIndex(t *testing.T) {
	index, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer index.Close()

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 16

	texts := []string{
		"The board shall manage the affairs of the corporation.",
		"Owners shall pay common expenses.",
		"The corporation shall keep adequate records.",
	}
	records := make([]storage.Record, len(texts))
	for i, text := range texts {
		chunk := &core.DocumentChunk{ID: fmt.Sprintf("c%d", i), Text: text}
		records[i] = storage.Record{
			ID:      chunk.ID,
			Vector:  mock.DeterministicVector(text, 16),
			Payload: core.Payload(chunk),
		}
	}
	require.NoError(t, index.Upsert(context.Background(), records))

	e, err := NewEngine(embedder, index)
	require.NoError(t, err)

	// The exact text embeds to the stored vector, giving a perfect match
	results, err := e.Retrieve(context.Background(), texts[1], 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.Equal(t, texts[1], results[0].Text)
}

// stalledIndex blocks every query until its context ends.
type stalledIndex struct {
	cannedIndex
	hadDeadline bool
}

func (s *stalledIndex) Query(ctx context.Context, vector []float32, topK int) ([]storage.Match, error) {
	_, s.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRetrieve_CallTimeout(t *testing.T) {
	t.Run("embedding call", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		e, err := NewEngine(embedder, &cannedIndex{}, WithTimeout(20*time.Millisecond))
		require.NoError(t, err)

		ctx := context.Background()
		_, err = e.Retrieve(ctx, "board duties", 0)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		var perr *core.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "embed", perr.Op)
		assert.NoError(t, ctx.Err(), "the caller's context is left alone")
	})

	t.Run("index call", func(t *testing.T) {
		index := &stalledIndex{}
		e := newTestEngine(t, index, WithTimeout(20*time.Millisecond))

		_, err := e.Retrieve(context.Background(), "board duties", 0)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		var perr *core.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "query", perr.Op)
		assert.True(t, index.hadDeadline)
	})

	t.Run("zero disables the bound", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		var hadDeadline bool
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			_, hadDeadline = ctx.Deadline()
			return mock.DeterministicVector(text, 4), nil
		}
		e, err := NewEngine(embedder, &cannedIndex{}, WithTimeout(0))
		require.NoError(t, err)

		_, err = e.Retrieve(context.Background(), "board duties", 0)
		assert.ErrorIs(t, err, ErrEmptyContext)
		assert.False(t, hadDeadline)
	})

	t.Run("negative timeout", func(t *testing.T) {
		_, err := NewEngine(mock.NewMockEmbedder(), &cannedIndex{}, WithTimeout(-time.Second))
		assert.ErrorIs(t, err, ErrInvalidTimeout)
	})
}
