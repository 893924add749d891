package retrieval

import "github.com/poiesic/lexrag/core"

// filter holds the post-query acceptance rules.
type filter struct {
	minScore float32
	exclude  []keyword
	require  []keyword
}

// accept reports whether a candidate survives filtering.
// The score test is strict: a score equal to minScore is rejected.
func (f filter) accept(r core.SearchResult) bool {
	if r.Score <= f.minScore {
		return false
	}
	if matchesAny(r.Text, f.exclude) {
		return false
	}
	if len(f.require) > 0 && !matchesAny(r.Text, f.require) {
		return false
	}
	return true
}

// apply returns the accepted candidates in their original order.
func (f filter) apply(candidates []core.SearchResult) []core.SearchResult {
	kept := make([]core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if f.accept(c) {
			kept = append(kept, c)
		}
	}
	return kept
}
