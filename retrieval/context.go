package retrieval

import (
	"strings"

	"github.com/poiesic/lexrag/core"
)

// CitationLabel renders a citation as "PART I, Section 12 (1) - Title".
// Empty parts are omitted; an empty citation renders as "".
func CitationLabel(c core.Citation) string {
	locator := make([]string, 0, 2)
	if c.Part != "" {
		locator = append(locator, c.Part)
	}

	section := ""
	if c.Section != "" {
		section = "Section " + c.Section
	}
	if c.Subsection != "" {
		section = strings.TrimSpace(section + " " + c.Subsection)
	}
	if section != "" {
		locator = append(locator, section)
	}

	label := strings.Join(locator, ", ")
	switch {
	case c.Title == "":
		return label
	case label == "":
		return c.Title
	default:
		return label + " - " + c.Title
	}
}

// BuildContext assembles the grounding context for a generator.
// Each result becomes its citation label, a colon and newline, then the
// trimmed text. Entries are separated by a blank line, in the given order.
func BuildContext(results []core.SearchResult) string {
	entries := make([]string, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		if label := CitationLabel(r.Citation); label != "" {
			text = label + ":\n" + text
		}
		entries = append(entries, text)
	}
	return strings.Join(entries, "\n\n")
}
