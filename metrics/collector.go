package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/ingestion"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/poiesic/lexrag/storage"
)

const namespace = "lexrag"

// Retrieval outcome label values.
const (
	OutcomeFound = "found"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Batch status label values.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Collector records ingestion and retrieval metrics in its own registry.
// It is an ingestion.BatchObserver and a retrieval.Monitor.
type Collector struct {
	Registry *prometheus.Registry

	batches         *prometheus.CounterVec
	chunks          *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	batchesInFlight prometheus.Gauge

	retrievals        *prometheus.CounterVec
	retrievalDuration prometheus.Histogram
	candidates        prometheus.Counter
	filtered          prometheus.Counter
}

var (
	_ ingestion.BatchObserver = (*Collector)(nil)
	_ retrieval.Monitor       = (*Collector)(nil)
)

// NewCollector creates a collector with a dedicated registry.
// When runtime is true the Go and process collectors are registered too.
func NewCollector(runtime bool) *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Ingestion batches by final status.",
		}, []string{"status"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Chunks in ingestion batches by final batch status.",
		}, []string{"status"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a batch including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		batchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_in_flight",
			Help:      "Batches currently being embedded or upserted.",
		}),
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Retrieval calls by outcome.",
		}, []string{"outcome"}),
		retrievalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Wall time of a retrieval call.",
			Buckets:   prometheus.DefBuckets,
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "candidates_total",
			Help:      "Candidates returned by the vector index.",
		}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "candidates_filtered_total",
			Help:      "Candidates dropped by the score threshold or keyword rules.",
		}),
	}

	c.Registry.MustRegister(
		c.batches,
		c.chunks,
		c.batchDuration,
		c.batchesInFlight,
		c.retrievals,
		c.retrievalDuration,
		c.candidates,
		c.filtered,
	)
	if runtime {
		c.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Pre-create label values so they export as zero
	for _, status := range []string{StatusSucceeded, StatusFailed} {
		c.batches.WithLabelValues(status)
		c.chunks.WithLabelValues(status)
	}
	for _, outcome := range []string{OutcomeFound, OutcomeEmpty, OutcomeError} {
		c.retrievals.WithLabelValues(outcome)
	}

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// Server returns an HTTP server exposing /metrics on addr.
func (c *Collector) Server(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// BatchStarted implements ingestion.BatchObserver.
func (c *Collector) BatchStarted(info ingestion.BatchInfo) {
	c.batchesInFlight.Inc()
}

// BatchFinished implements ingestion.BatchObserver.
func (c *Collector) BatchFinished(info ingestion.BatchInfo, elapsed time.Duration, err error) {
	c.batchesInFlight.Dec()
	c.batchDuration.Observe(elapsed.Seconds())

	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	c.batches.WithLabelValues(status).Inc()
	c.chunks.WithLabelValues(status).Add(float64(info.Size))
}

// Start implements retrieval.Monitor.
func (c *Collector) Start(query string) {}

// AfterEmbedding implements retrieval.Monitor.
func (c *Collector) AfterEmbedding(dimension int) {}

// AfterQuery implements retrieval.Monitor.
func (c *Collector) AfterQuery(matches []storage.Match) {
	c.candidates.Add(float64(len(matches)))
}

// AfterFilter implements retrieval.Monitor.
func (c *Collector) AfterFilter(candidates, kept int) {
	c.filtered.Add(float64(candidates - kept))
}

// Finish implements retrieval.Monitor.
func (c *Collector) Finish(results []core.SearchResult, elapsed time.Duration, err error) {
	c.retrievalDuration.Observe(elapsed.Seconds())

	outcome := OutcomeFound
	switch {
	case errors.Is(err, retrieval.ErrEmptyContext):
		outcome = OutcomeEmpty
	case err != nil:
		outcome = OutcomeError
	}
	c.retrievals.WithLabelValues(outcome).Inc()
}
