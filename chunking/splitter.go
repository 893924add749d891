// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunking

import (
	"slices"
	"strings"
)

const (
	// DefaultChunkSize is the default window size in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is the default number of characters shared by adjacent windows.
	DefaultOverlap = 200
)

// separatorGroups lists split points from strongest to weakest boundary.
// A split always falls immediately after the separator.
var separatorGroups = [][]string{
	{"\n\n"},
	{". ", "? ", "! ", ".\n", "?\n", "!\n"},
	{"; ", ", ", ": ", ";\n", ",\n", ":\n"},
}

// Splitter cuts text into size-bounded windows with an exact overlap.
//
// Sizes are counted in characters (runes). Every window except the last
// ends at a split point chosen by separator priority, and the next window
// starts exactly overlap characters before that point. The last overlap
// characters of a window are therefore always the first overlap characters
// of the window that follows it.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a splitter with the given window size and overlap.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= size {
		return nil, ErrInvalidOverlap
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Size returns the maximum window size in characters.
func (s *Splitter) Size() int {
	return s.size
}

// Overlap returns the number of characters shared by adjacent windows.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split returns the windows covering text. Blank text yields no windows and
// text no longer than the window size yields itself.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= s.size {
		return []string{text}
	}

	windows := make([]string, 0, len(runes)/(s.size-s.overlap)+1)
	start := 0
	for len(runes)-start > s.size {
		split := s.splitPoint(runes, start)
		windows = append(windows, string(runes[start:split]))
		start = split - s.overlap
	}
	windows = append(windows, string(runes[start:]))
	return windows
}

// splitPoint picks the end of the window starting at start. The result lies
// in (start+overlap, start+size] so that every window makes progress.
func (s *Splitter) splitPoint(runes []rune, start int) int {
	limit := start + s.size
	floor := start + s.overlap + 1
	for _, group := range separatorGroups {
		best := -1
		for _, sep := range group {
			if p := lastSplitAfter(runes, []rune(sep), floor, limit); p > best {
				best = p
			}
		}
		if best >= 0 {
			return best
		}
	}
	return limit
}

// lastSplitAfter returns the largest p in [floor, limit] such that sep ends
// exactly at p, or -1 when there is none.
func lastSplitAfter(runes, sep []rune, floor, limit int) int {
	for p := limit; p >= floor; p-- {
		begin := p - len(sep)
		if begin < 0 {
			break
		}
		if slices.Equal(runes[begin:p], sep) {
			return p
		}
	}
	return -1
}
