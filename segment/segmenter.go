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


package segment

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lexrag/core"
)

const missExcerptLength = 80

// Unit is a structural unit of the document: a part preamble or a section.
type Unit struct {
	Text     string
	Metadata core.ChunkMetadata
}

// Miss records text that matched no structural pattern and was skipped.
type Miss struct {
	Page    int
	Excerpt string
	Err     error
}

func (m Miss) Error() string {
	return fmt.Sprintf("%s on page %d: %s: %q", ErrSegmentationMiss, m.Page, m.Err, m.Excerpt)
}

// Unwrap exposes ErrSegmentationMiss and the specific reason.
func (m Miss) Unwrap() []error {
	return []error{ErrSegmentationMiss, m.Err}
}

// Result holds the units found in a document along with any skipped text.
type Result struct {
	Units  []Unit
	Misses []Miss
}

// Segmenter splits cleaned document text into parts and sections and
// extracts semantic metadata for each unit.
// A Segmenter holds no per-call state and is safe for concurrent use.
type Segmenter struct {
	header *regexp.Regexp
	logger *slog.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter) error

// WithHeaderPattern sets the running page header stripped during cleaning.
// An empty pattern disables header removal.
// Default is DefaultHeaderPattern.
func WithHeaderPattern(pattern string) Option {
	return func(s *Segmenter) error {
		if pattern == "" {
			s.header = nil
			return nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidHeaderPattern, err)
		}
		s.header = re
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Segmenter) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "segmenter")
		return nil
	}
}

// NewSegmenter creates a new segmenter.
func NewSegmenter(opts ...Option) (*Segmenter, error) {
	s := &Segmenter{
		header: regexp.MustCompile(DefaultHeaderPattern),
		logger: slog.Default().With("component", "segmenter"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// pageIndex maps byte offsets in the joined document text to page numbers.
type pageIndex struct {
	starts  []int
	numbers []int
}

func (p *pageIndex) at(offset int) int {
	i := sort.Search(len(p.starts), func(i int) bool { return p.starts[i] > offset }) - 1
	if i < 0 {
		return 0
	}
	return p.numbers[i]
}

// Segment cleans every page, joins them, and splits the result into units.
//
// Precedence is Part > Section > Subsection: sections are only recognized
// inside a part, and subsections are left to the chunk assembler. Text that
// precedes the first part heading is reported as a Miss and skipped.
//
// Returns a ValidationError when the document is not valid UTF-8, is empty
// after cleaning, or contains no part heading at all.
func (s *Segmenter) Segment(doc Document) (*Result, error) {
	var b strings.Builder
	pages := &pageIndex{}
	for _, page := range doc.Pages {
		if !utf8.ValidString(page.Text) {
			return nil, core.NewValidationError(fmt.Errorf("page %d: %w", page.Number, core.ErrInvalidEncoding))
		}
		cleaned := CleanPage(page.Text, s.header)
		if cleaned == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		pages.starts = append(pages.starts, b.Len())
		pages.numbers = append(pages.numbers, page.Number)
		b.WriteString(cleaned)
	}

	text := b.String()
	if err := core.ValidateDocumentText(text); err != nil {
		return nil, err
	}

	partLocs := partHeadingPattern.FindAllStringSubmatchIndex(text, -1)
	if len(partLocs) == 0 {
		return nil, core.NewValidationError(core.ErrNoStructure)
	}

	result := &Result{}
	if preamble := strings.TrimSpace(text[:partLocs[0][0]]); preamble != "" {
		s.recordMiss(result, pages.at(0), preamble, ErrNoPartHeading)
	}

	for i, loc := range partLocs {
		end := len(text)
		if i+1 < len(partLocs) {
			end = partLocs[i+1][0]
		}
		part := "PART " + text[loc[2]:loc[3]]
		partTitle, bodyStart := strings.TrimSpace(text[loc[4]:loc[5]]), loc[1]
		if partTitle == "" {
			partTitle, bodyStart = nextLineTitle(text, loc[1], end)
		}
		units := s.segmentPart(part, partTitle, text[bodyStart:end], bodyStart, pages)
		if len(units) == 0 {
			s.logger.Debug("part has no content", "part", part)
		}
		result.Units = append(result.Units, units...)
	}

	s.logger.Debug("segmented document",
		"pages", len(doc.Pages), "units", len(result.Units), "misses", len(result.Misses))

	return result, nil
}

// segmentPart splits the body of one part into its preamble and sections.
// base is the offset of body within the joined document text.
func (s *Segmenter) segmentPart(part, partTitle, body string, base int, pages *pageIndex) []Unit {
	sectionLocs := sectionHeadingPattern.FindAllStringSubmatchIndex(body, -1)
	units := make([]Unit, 0, len(sectionLocs)+1)

	preambleEnd := len(body)
	if len(sectionLocs) > 0 {
		preambleEnd = sectionLocs[0][0]
	}
	if preamble := strings.TrimSpace(body[:preambleEnd]); preamble != "" {
		offset := base + strings.Index(body, preamble)
		md := extractMetadata(preamble, preamble, "")
		md.Part = part
		md.PartTitle = partTitle
		md.PageNumber = pages.at(offset)
		md.ChunkType = core.ChunkTypePart
		units = append(units, Unit{Text: preamble, Metadata: md})
	}

	for i, loc := range sectionLocs {
		end := len(body)
		if i+1 < len(sectionLocs) {
			end = sectionLocs[i+1][0]
		}
		section := body[loc[2]:loc[3]]
		text := strings.TrimSpace(body[loc[0]:end])

		// Cross-references exclude the unit's own heading
		md := extractMetadata(text, body[loc[3]:end], section)
		md.Part = part
		md.PartTitle = partTitle
		md.Section = section
		md.SectionTitle = headingTitle(body[loc[4]:loc[5]])
		md.PageNumber = pages.at(base + loc[0])
		md.ChunkType = core.ChunkTypeSection
		units = append(units, Unit{Text: text, Metadata: md})
	}

	return units
}

// extractMetadata runs every semantic extractor over a unit.
func extractMetadata(text, refText, section string) core.ChunkMetadata {
	amendments := ExtractAmendments(text, section)
	return core.ChunkMetadata{
		Type:            DetermineType(text),
		RelatedSections: ExtractCrossReferences(refText),
		Definitions:     ExtractDefinitions(text),
		Amendments:      amendments,
		Topics:          ExtractTopics(text),
		Notes:           ExtractNotes(text),
	}
}

// nextLineTitle returns the first non-blank line of text[from:to] as a
// title, unless that line is itself a section heading. The returned offset
// is just past the title line, or from when there is no title.
func nextLineTitle(text string, from, to int) (string, int) {
	pos := from
	for pos < to && text[pos] == '\n' {
		pos++
	}
	lineEnd := strings.IndexByte(text[pos:to], '\n')
	if lineEnd < 0 {
		lineEnd = to - pos
	}
	line := strings.TrimSpace(text[pos : pos+lineEnd])
	if line == "" || sectionHeadingPattern.MatchString(line) {
		return "", from
	}
	return line, pos + lineEnd
}

// headingTitle trims a heading remainder, cutting it at the first
// subsection marker when body text starts on the heading line.
func headingTitle(rest string) string {
	if loc := subsectionPattern.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(rest)
}

func (s *Segmenter) recordMiss(result *Result, page int, text string, reason error) {
	excerpt := text
	if utf8.RuneCountInString(excerpt) > missExcerptLength {
		excerpt = string([]rune(excerpt)[:missExcerptLength]) + "..."
	}
	miss := Miss{Page: page, Excerpt: excerpt, Err: reason}
	result.Misses = append(result.Misses, miss)
	s.logger.Warn("skipping unstructured text", "page", page, "reason", reason, "excerpt", excerpt)
}
