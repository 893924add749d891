package segment

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNumber(t *testing.T) {
	assert.Equal(t, 12, PageNumber("Condominium Act, 1998\nPage 12\nPART I"))
	assert.Equal(t, 3, PageNumber("Page 3 of the act, see Page 4"))
	assert.Equal(t, 0, PageNumber("no marker here"))
}

func TestSplitPages(t *testing.T) {
	doc := SplitPages("Page 7\nfirst\fsecond\fPage 9\nthird")

	if assert.Len(t, doc.Pages, 3) {
		assert.Equal(t, 7, doc.Pages[0].Number)
		assert.Equal(t, 2, doc.Pages[1].Number, "positional number when no marker")
		assert.Equal(t, 9, doc.Pages[2].Number)
		assert.Equal(t, "second", doc.Pages[1].Text)
	}
}

func TestCleanPage(t *testing.T) {
	header := regexp.MustCompile(DefaultHeaderPattern)

	t.Run("removes markers and headers", func(t *testing.T) {
		got := CleanPage("Condominium Act, 1998\nPage 4\nPART I  GENERAL", header)
		assert.Equal(t, "PART I GENERAL", got)
	})

	t.Run("collapses blank lines", func(t *testing.T) {
		got := CleanPage("\n\nline one\n\n\n\n  line   two  \n\n", header)
		assert.Equal(t, "line one\n\nline two", got)
	})

	t.Run("normalizes carriage returns", func(t *testing.T) {
		got := CleanPage("a\r\nb\rc", header)
		assert.Equal(t, "a\nb\nc", got)
	})

	t.Run("nil header keeps header text", func(t *testing.T) {
		got := CleanPage("Condominium Act, 1998\nPage 1", nil)
		assert.Equal(t, "Condominium Act, 1998", got)
	})

	t.Run("empty page", func(t *testing.T) {
		assert.Equal(t, "", CleanPage("Page 3\n \t \n", header))
	})
}
