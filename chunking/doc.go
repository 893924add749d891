// Package chunking assembles segmented units into identified chunks.
//
// A Splitter cuts text into windows of at most a fixed number of characters
// that overlap by an exact number of characters. Split points prefer a
// paragraph break, then a sentence end, then clause punctuation, and fall
// back to a hard cut.
//
// An Assembler runs the Splitter over each unit, adds separate subsection
// and amendment chunks, and assigns every chunk a stable id derived from its
// structural path. Re-assembling the same document yields the same ids, so
// re-ingestion overwrites rather than duplicates.
//
// Neighbor widening is available through WithWidening and is applied when
// chunks are assembled, before embedding.
package chunking
