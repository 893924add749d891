package segment

import (
	"errors"
	"testing"

	"github.com/poiesic/lexrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAct = `Condominium Act, 1998
Page 1
Table of contents and other front matter.
PART I
INTERPRETATION
This Part sets out the meaning of terms.
Section 1 - Definitions
(1) In this Act, "owner" means a person who owns a unit.
(2) "board" means the board of directors.
` + "\f" + `Condominium Act, 1998
Page 2
PART II
CORPORATIONS
Section 12 - Duties of the board
(1) The board shall manage the affairs of the corporation, subject to Section 1.
[Amendment: 2015-06-01: Reporting duty added]
Note: See also Section 27.
Section 13 Records
The corporation shall keep records.
`

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	s, err := NewSegmenter()
	require.NoError(t, err)
	return s
}

func TestNewSegmenter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := NewSegmenter()
		require.NoError(t, err)
		assert.NotNil(t, s.header)
		assert.NotNil(t, s.logger)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		s, err := NewSegmenter(WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, s.logger)
	})

	t.Run("empty header pattern disables header removal", func(t *testing.T) {
		s, err := NewSegmenter(WithHeaderPattern(""))
		require.NoError(t, err)
		assert.Nil(t, s.header)
	})

	t.Run("invalid header pattern", func(t *testing.T) {
		_, err := NewSegmenter(WithHeaderPattern("(unclosed"))
		assert.ErrorIs(t, err, ErrInvalidHeaderPattern)
	})
}

func TestSegment(t *testing.T) {
	s := newTestSegmenter(t)

	result, err := s.Segment(SplitPages(sampleAct))
	require.NoError(t, err)

	// Front matter before PART I is skipped
	require.Len(t, result.Misses, 1)
	assert.ErrorIs(t, result.Misses[0], ErrSegmentationMiss)
	assert.ErrorIs(t, result.Misses[0], ErrNoPartHeading)
	assert.Equal(t, 1, result.Misses[0].Page)
	assert.Contains(t, result.Misses[0].Excerpt, "Table of contents")

	require.Len(t, result.Units, 4)

	preamble := result.Units[0]
	assert.Equal(t, core.ChunkTypePart, preamble.Metadata.ChunkType)
	assert.Equal(t, "PART I", preamble.Metadata.Part)
	assert.Empty(t, preamble.Metadata.Section)
	assert.Equal(t, "INTERPRETATION", preamble.Metadata.PartTitle, "title taken from the line after the heading")
	assert.Equal(t, "This Part sets out the meaning of terms.", preamble.Text)

	defs := result.Units[1]
	assert.Equal(t, core.ChunkTypeSection, defs.Metadata.ChunkType)
	assert.Equal(t, "PART I", defs.Metadata.Part)
	assert.Equal(t, "1", defs.Metadata.Section)
	assert.Equal(t, "Definitions", defs.Metadata.SectionTitle)
	assert.Equal(t, 1, defs.Metadata.PageNumber)
	assert.Equal(t, core.ContentTypeDefinition, defs.Metadata.Type)
	assert.Contains(t, defs.Metadata.Definitions, "owner")
	assert.Contains(t, defs.Metadata.Definitions, "board")
	assert.Empty(t, defs.Metadata.RelatedSections, "own heading is not a cross-reference")

	duties := result.Units[2]
	assert.Equal(t, "PART II", duties.Metadata.Part)
	assert.Equal(t, "CORPORATIONS", duties.Metadata.PartTitle)
	assert.Equal(t, "12", duties.Metadata.Section)
	assert.Equal(t, "Duties of the board", duties.Metadata.SectionTitle)
	assert.Equal(t, 2, duties.Metadata.PageNumber)
	assert.Equal(t, core.ContentTypeRequirement, duties.Metadata.Type)
	require.Len(t, duties.Metadata.Amendments, 1)
	assert.Equal(t, "2015-06-01", duties.Metadata.Amendments[0].Date)
	assert.Equal(t, "12", duties.Metadata.Amendments[0].Section)
	assert.Equal(t, "(1)", duties.Metadata.Amendments[0].Subsection)
	assert.Equal(t, []string{"See also Section 27."}, duties.Metadata.Notes)
	require.Len(t, duties.Metadata.RelatedSections, 2)
	assert.Equal(t, "Section 1", duties.Metadata.RelatedSections[0].Section)
	assert.Equal(t, "Section 27", duties.Metadata.RelatedSections[1].Section)
	assert.NotContains(t, duties.Text, "Section 13")

	records := result.Units[3]
	assert.Equal(t, "13", records.Metadata.Section)
	assert.Equal(t, "Records", records.Metadata.SectionTitle)
	assert.Equal(t, "Section 13 Records\nThe corporation shall keep records.", records.Text)
}

func TestSegment_PartTitleOnHeadingLine(t *testing.T) {
	s := newTestSegmenter(t)

	result, err := s.Segment(SplitPages("PART IV - Finances\nSection 40: Budget (1) The board shall prepare a budget."))
	require.NoError(t, err)
	require.Len(t, result.Units, 1)

	md := result.Units[0].Metadata
	assert.Equal(t, "PART IV", md.Part)
	assert.Equal(t, "Finances", md.PartTitle)
	assert.Equal(t, "40", md.Section)
	assert.Equal(t, "Budget", md.SectionTitle)
	assert.Empty(t, result.Misses)
}

func TestSegment_InlineReferencesAreNotHeadings(t *testing.T) {
	s := newTestSegmenter(t)

	result, err := s.Segment(SplitPages("PART I\nSection 2 Scope\nThis applies despite Section 9 of the Act."))
	require.NoError(t, err)
	require.Len(t, result.Units, 1)
	assert.Equal(t, "2", result.Units[0].Metadata.Section)
}

func TestSegment_Errors(t *testing.T) {
	s := newTestSegmenter(t)

	t.Run("empty document", func(t *testing.T) {
		_, err := s.Segment(SplitPages("Condominium Act, 1998\nPage 1\n"))
		assert.ErrorIs(t, err, core.ErrValidation)
		assert.ErrorIs(t, err, core.ErrEmptyDocument)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := s.Segment(Document{Pages: []Page{{Number: 1, Text: "PART I\xff\xfe"}}})
		assert.ErrorIs(t, err, core.ErrValidation)
		assert.ErrorIs(t, err, core.ErrInvalidEncoding)
	})

	t.Run("no structure", func(t *testing.T) {
		_, err := s.Segment(SplitPages("Just a letter with no parts or sections."))
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.ErrorIs(t, err, core.ErrNoStructure)
	})
}
