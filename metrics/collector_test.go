package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/ingestion"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/poiesic/lexrag/storage"
)

func TestCollector_Batches(t *testing.T) {
	c := NewCollector(false)

	ok := ingestion.BatchInfo{Index: 0, Size: 100, FirstID: "a", LastID: "b"}
	bad := ingestion.BatchInfo{Index: 1, Size: 50, FirstID: "c", LastID: "d"}

	c.BatchStarted(ok)
	c.BatchStarted(bad)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.batchesInFlight))

	c.BatchFinished(ok, 200*time.Millisecond, nil)
	c.BatchFinished(bad, time.Second, errors.New("upsert failed"))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.batchesInFlight))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches.WithLabelValues(StatusSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches.WithLabelValues(StatusFailed)))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.chunks.WithLabelValues(StatusSucceeded)))
	assert.Equal(t, 50.0, testutil.ToFloat64(c.chunks.WithLabelValues(StatusFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.batchDuration))
}

func TestCollector_Retrieval(t *testing.T) {
	c := NewCollector(false)

	c.Start("board duties")
	c.AfterEmbedding(384)
	c.AfterQuery(make([]storage.Match, 15))
	c.AfterFilter(15, 4)
	c.Finish(make([]core.SearchResult, 4), 30*time.Millisecond, nil)

	c.Start("parking")
	c.AfterQuery(make([]storage.Match, 3))
	c.AfterFilter(3, 0)
	c.Finish(nil, 10*time.Millisecond, retrieval.ErrEmptyContext)

	c.Start("anything")
	c.Finish(nil, time.Millisecond, core.NewProviderError("embed", errors.New("down")))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.retrievals.WithLabelValues(OutcomeFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.retrievals.WithLabelValues(OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.retrievals.WithLabelValues(OutcomeError)))
	assert.Equal(t, 18.0, testutil.ToFloat64(c.candidates))
	assert.Equal(t, 14.0, testutil.ToFloat64(c.filtered))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(true)
	c.BatchFinished(ingestion.BatchInfo{Size: 10}, time.Millisecond, nil)

	srv := httptest.NewServer(c.Server(":0").Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	expected := `
# HELP lexrag_ingest_chunks_total Chunks in ingestion batches by final batch status.
# TYPE lexrag_ingest_chunks_total counter
lexrag_ingest_chunks_total{status="failed"} 0
lexrag_ingest_chunks_total{status="succeeded"} 10
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry, strings.NewReader(expected), "lexrag_ingest_chunks_total"))

	count, err := testutil.GatherAndCount(c.Registry, "go_goroutines")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
