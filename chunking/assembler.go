package chunking

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/segment"
)

// DefaultNeighbors is the number of chunks taken from each side when
// widening is enabled without an explicit count.
const DefaultNeighbors = 1

const subsectionElement = "sub"

// Assembler turns segmented units into identified document chunks.
//
// For every unit it emits, in order:
//   - the size-bounded windows of the unit text
//   - one chunk per subsection (section units only)
//   - one chunk per amendment
//
// Ids are derived from the structural path, e.g. "part-i-section-12",
// "part-i-section-12-sub-1-a" or "part-i-section-12-amendment-2015-06-01".
// Subsection markers sit behind a "sub" element so that subsection (1) of
// section 12 never shares a path with section 12.1.
// A unit cut into several windows numbers them "-chunk-1", "-chunk-2", and
// so on.
// Only a repeated structural path, such as a section number printed twice,
// falls back to a "-2", "-3", ... suffix so ids stay unique within one
// Assemble call.
type Assembler struct {
	size      int
	overlap   int
	splitter  *Splitter
	widen     bool
	neighbors int
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler) error

// WithChunkSize sets the window size in characters.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(a *Assembler) error {
		if size <= 0 {
			return ErrInvalidChunkSize
		}
		a.size = size
		return nil
	}
}

// WithOverlap sets the overlap between adjacent windows in characters.
// Default is DefaultOverlap.
func WithOverlap(overlap int) Option {
	return func(a *Assembler) error {
		if overlap < 0 {
			return ErrInvalidOverlap
		}
		a.overlap = overlap
		return nil
	}
}

// WithWidening replaces the text of every window chunk with itself joined
// to up to neighbors window chunks on each side. Pass 0 for DefaultNeighbors.
//
// The widened text is what gets embedded and stored. Subsection and amendment chunks are never widened.
// Widening is off unless this option is given.
func WithWidening(neighbors int) Option {
	return func(a *Assembler) error {
		if neighbors < 0 {
			return ErrInvalidNeighbors
		}
		if neighbors == 0 {
			neighbors = DefaultNeighbors
		}
		a.widen = true
		a.neighbors = neighbors
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "assembler")
		return nil
	}
}

// NewAssembler creates a new chunk assembler.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{
		size:    DefaultChunkSize,
		overlap: DefaultOverlap,
		logger:  slog.Default().With("component", "assembler"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	splitter, err := NewSplitter(a.size, a.overlap)
	if err != nil {
		return nil, err
	}
	a.splitter = splitter
	return a, nil
}

// Assemble builds chunks for units in document order.
func (a *Assembler) Assemble(units []segment.Unit) []*core.DocumentChunk {
	ids := newIDRegistry()
	chunks := make([]*core.DocumentChunk, 0, len(units)*2)

	// Positions of window chunks in chunks, in document order
	windows := make([]int, 0, len(units))

	for _, unit := range units {
		base := unitPath(unit.Metadata)

		for _, chunk := range a.split(ids, base, unit.Text, unit.Metadata) {
			windows = append(windows, len(chunks))
			chunks = append(chunks, chunk)
		}

		if unit.Metadata.ChunkType == core.ChunkTypeSection {
			for _, sub := range segment.ExtractSubsections(unit.Text) {
				md := subsectionMetadata(unit.Metadata, sub)
				chunks = append(chunks, a.split(ids, slices.Concat(base, []string{subsectionElement, sub.Marker}), sub.Text, md)...)
			}
		}

		for _, amendment := range unit.Metadata.Amendments {
			chunks = append(chunks, amendmentChunk(ids, base, unit.Metadata, amendment))
		}
	}

	if a.widen {
		a.widenWindows(chunks, windows)
	}

	a.logger.Debug("assembled chunks", "units", len(units), "chunks", len(chunks), "widened", a.widen)
	return chunks
}

// split cuts text into windows and assigns each one an id under path.
func (a *Assembler) split(ids *idRegistry, path []string, text string, md core.ChunkMetadata) []*core.DocumentChunk {
	parts := a.splitter.Split(text)
	chunks := make([]*core.DocumentChunk, 0, len(parts))
	for i, part := range parts {
		id := core.ChunkID(path...)
		if len(parts) > 1 {
			id = core.ChunkID(slices.Concat(path, []string{"chunk", strconv.Itoa(i + 1)})...)
		}
		chunks = append(chunks, &core.DocumentChunk{
			ID:       ids.claim(id),
			Text:     part,
			Metadata: cloneMetadata(md),
		})
	}
	return chunks
}

// widenWindows rewrites the text of each window chunk as the concatenation
// of itself and its neighbors, reading from the unwidened originals.
func (a *Assembler) widenWindows(chunks []*core.DocumentChunk, windows []int) {
	original := make([]string, len(windows))
	for i, pos := range windows {
		original[i] = chunks[pos].Text
	}
	for i, pos := range windows {
		from := max(0, i-a.neighbors)
		to := min(len(windows), i+a.neighbors+1)
		chunks[pos].Text = strings.Join(original[from:to], "\n\n")
	}
}

func unitPath(md core.ChunkMetadata) []string {
	if md.Section == "" {
		return []string{md.Part}
	}
	return []string{md.Part, "section", md.Section}
}

func subsectionMetadata(parent core.ChunkMetadata, sub segment.Subsection) core.ChunkMetadata {
	md := cloneMetadata(parent)
	md.Subsection = sub.Marker
	md.ChunkType = core.ChunkTypeSubsection
	md.Type = segment.DetermineType(sub.Text)
	md.RelatedSections = segment.ExtractCrossReferences(sub.Text)
	md.Definitions = segment.ExtractDefinitions(sub.Text)
	md.Amendments = segment.ExtractAmendments(sub.Text, parent.Section)
	md.Topics = segment.ExtractTopics(sub.Text)
	md.Notes = segment.ExtractNotes(sub.Text)
	return md
}

func amendmentChunk(ids *idRegistry, base []string, parent core.ChunkMetadata, amendment core.Amendment) *core.DocumentChunk {
	date := amendment.Date
	if date == "" {
		date = "unknown"
	}

	text := amendment.Description
	if text == "" {
		text = amendment.Text
	}

	md := cloneMetadata(parent)
	md.Subsection = amendment.Subsection
	md.Type = core.ContentTypeAmendment
	md.IsAmendment = true
	md.Date = amendment.Date
	md.Amendments = []core.Amendment{amendment}
	md.Definitions = nil
	md.RelatedSections = segment.ExtractCrossReferences(text)
	md.Topics = segment.ExtractTopics(text)
	md.Notes = nil

	path := slices.Concat(base, []string{"amendment", date})
	return &core.DocumentChunk{
		ID:       ids.claim(core.ChunkID(path...)),
		Text:     text,
		Metadata: md,
	}
}

// cloneMetadata copies md so chunks never share slices or maps.
func cloneMetadata(md core.ChunkMetadata) core.ChunkMetadata {
	out := md
	out.RelatedSections = slices.Clone(md.RelatedSections)
	out.Amendments = slices.Clone(md.Amendments)
	out.Topics = slices.Clone(md.Topics)
	out.Notes = slices.Clone(md.Notes)
	out.Definitions = maps.Clone(md.Definitions)
	return out
}

// idRegistry hands out ids that are unique within one assembly run.
type idRegistry struct {
	seen map[string]bool
}

func newIDRegistry() *idRegistry {
	return &idRegistry{seen: make(map[string]bool)}
}

// claim returns id, or id with the first free "-N" suffix (N >= 2).
func (r *idRegistry) claim(id string) string {
	candidate := id
	for n := 2; r.seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	r.seen[candidate] = true
	return candidate
}
