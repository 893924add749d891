package ingestion

import "github.com/poiesic/lexrag/core"

// batch is a contiguous slice of chunks submitted as one unit of work.
type batch struct {
	index  int
	chunks []*core.DocumentChunk
}

// splitBatches partitions chunks into ceil(len/size) batches, preserving order.
func splitBatches(chunks []*core.DocumentChunk, size int) []batch {
	batches := make([]batch, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		batches = append(batches, batch{
			index:  len(batches),
			chunks: chunks[start:end],
		})
	}
	return batches
}

func (b batch) info() BatchInfo {
	return BatchInfo{
		Index:   b.index,
		Size:    len(b.chunks),
		FirstID: b.chunks[0].ID,
		LastID:  b.chunks[len(b.chunks)-1].ID,
	}
}
