package ingestion

import "time"

// BatchInfo identifies a batch by position and chunk-id range.
type BatchInfo struct {
	Index   int
	Size    int
	FirstID string
	LastID  string
}

// BatchObserver receives batch lifecycle callbacks.
// Callbacks run on worker goroutines and must be safe for concurrent use.
type BatchObserver interface {
	// BatchStarted is called when a worker picks up a batch.
	BatchStarted(info BatchInfo)

	// BatchFinished is called once per batch after its last attempt.
	// err is nil when the batch succeeded.
	BatchFinished(info BatchInfo, elapsed time.Duration, err error)
}

// multiObserver fans callbacks out to several observers in order.
type multiObserver []BatchObserver

func (m multiObserver) BatchStarted(info BatchInfo) {
	for _, o := range m {
		o.BatchStarted(info)
	}
}

func (m multiObserver) BatchFinished(info BatchInfo, elapsed time.Duration, err error) {
	for _, o := range m {
		o.BatchFinished(info, elapsed, err)
	}
}
