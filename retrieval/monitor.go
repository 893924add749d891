package retrieval

import (
	"time"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

// Monitor provides hooks to observe the retrieval process.
// Implementations must be safe for concurrent use when the engine is shared.
type Monitor interface {
	Start(query string)
	AfterEmbedding(dimension int)
	AfterQuery(matches []storage.Match)
	AfterFilter(candidates, kept int)
	// Finish is called exactly once per Retrieve call that got past
	// argument validation. err is ErrEmptyContext when nothing survived.
	Finish(results []core.SearchResult, elapsed time.Duration, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = noopMonitor{}

func (noopMonitor) Start(string)                                     {}
func (noopMonitor) AfterEmbedding(int)                               {}
func (noopMonitor) AfterQuery([]storage.Match)                       {}
func (noopMonitor) AfterFilter(int, int)                             {}
func (noopMonitor) Finish([]core.SearchResult, time.Duration, error) {}
