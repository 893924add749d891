package retrieval

import (
	"testing"

	"github.com/poiesic/lexrag/core"
	"github.com/stretchr/testify/assert"
)

func TestCitationLabel(t *testing.T) {
	tests := []struct {
		name     string
		citation core.Citation
		want     string
	}{
		{"full", core.Citation{Part: "PART I", Section: "12", Subsection: "(1)", Title: "Duties"}, "PART I, Section 12 (1) - Duties"},
		{"no subsection", core.Citation{Part: "PART II", Section: "3", Title: "Records"}, "PART II, Section 3 - Records"},
		{"part only", core.Citation{Part: "PART III", Title: "FINANCES"}, "PART III - FINANCES"},
		{"no title", core.Citation{Part: "PART I", Section: "1"}, "PART I, Section 1"},
		{"title only", core.Citation{Title: "Definitions"}, "Definitions"},
		{"empty", core.Citation{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CitationLabel(tt.citation))
		})
	}
}

func TestBuildContext(t *testing.T) {
	results := []core.SearchResult{
		{
			Text:     "  (1) The board shall act.\n",
			Citation: core.Citation{Part: "PART I", Section: "12", Subsection: "(1)", Title: "Duties"},
		},
		{
			Text: "Unlabelled text.",
		},
	}

	want := "PART I, Section 12 (1) - Duties:\n(1) The board shall act.\n\nUnlabelled text."
	assert.Equal(t, want, BuildContext(results))
	assert.Empty(t, BuildContext(nil))
}
