// Package metrics exports ingestion and retrieval metrics to Prometheus.
//
// A Collector is plugged into the ingestion pipeline as a BatchObserver and
// into the retrieval engine as a Monitor. Each Collector owns its registry,
// served by Handler or Server.
package metrics
