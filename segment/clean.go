package segment

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	pageMarkerPattern  = regexp.MustCompile(`Page (\d+)`)
	inlineSpacePattern = regexp.MustCompile(`[ \t\x{00A0}\x{2009}\x{202F}]+`)
)

// DefaultHeaderPattern matches the running header printed on every page of
// the consolidated Act, e.g. "Condominium Act, 1998".
const DefaultHeaderPattern = `Condominium Act, \d+`

// Page is one page of a source document.
type Page struct {
	Number int
	Text   string
}

// Document is an ordered list of pages.
type Document struct {
	Pages []Page
}

// SplitPages splits raw text into pages on form feed characters.
// Each page is numbered by its first "Page N" marker, or by its position
// (starting at 1) when it carries none.
func SplitPages(raw string) Document {
	chunks := strings.Split(raw, "\f")
	pages := make([]Page, 0, len(chunks))
	for i, text := range chunks {
		number := PageNumber(text)
		if number == 0 {
			number = i + 1
		}
		pages = append(pages, Page{Number: number, Text: text})
	}
	return Document{Pages: pages}
}

// PageNumber returns the number from the first "Page N" marker in text,
// or 0 when there is none.
func PageNumber(text string) int {
	m := pageMarkerPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// CleanPage strips page markers and running headers from page text and
// normalizes whitespace. Line breaks are kept, runs of blank lines collapse
// to a single blank line, and each line is trimmed.
// A nil header pattern only removes page markers.
func CleanPage(text string, header *regexp.Regexp) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = pageMarkerPattern.ReplaceAllString(text, "")
	if header != nil {
		text = header.ReplaceAllString(text, "")
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(inlineSpacePattern.ReplaceAllString(line, " "))
		if line == "" {
			// Only one blank line in a row, and none at the start
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
