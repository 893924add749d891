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
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lexrag/core"
)

// Patterns are compiled once and only ever used through the stateless
// Find* methods, so every extractor below is a pure function of its input.
var (
	partHeadingPattern    = regexp.MustCompile(`(?m)^[ \t]*(?:PART|Part)[ \t]+([IVXLCDM]+)\b[ \t]*[-–—:.]?[ \t]*(.*)$`)
	sectionHeadingPattern = regexp.MustCompile(`(?m)^[ \t]*(?:SECTION|Section)[ \t]+(\d+(?:\.\d+)*)\b[ \t]*[-–—:.]?[ \t]*(.*)$`)
	subsectionPattern     = regexp.MustCompile(`\((\d+)\)(\([a-z]\))?`)
	amendmentPattern      = regexp.MustCompile(`\[Amendment:\s*([^\]]+)\]`)
	notePattern           = regexp.MustCompile(`(?m)^[ \t]*Note:[ \t]*(.*)$`)
	definitionPattern     = regexp.MustCompile(`["“]([^"”]+)["”]\s+means\s+([^.]+)`)
	crossRefPattern       = regexp.MustCompile(`Section \d+(\.\d+)?`)
)

const (
	definitionContextRadius = 100
	crossRefContextRadius   = 50
)

// Subsection is one subsection found by a marker walk over section text.
type Subsection struct {
	Marker string // e.g. "(1)" or "(1)(a)"
	Text   string
	Offset int // Byte offset of the marker in the walked text
}

// ExtractSubsections walks text from one subsection marker to the next.
// Every marker opens a new subsection that runs until the following marker
// or the end of text, so the results never overlap. Text before the first
// marker is not part of any subsection.
func ExtractSubsections(text string) []Subsection {
	locs := subsectionPattern.FindAllStringIndex(text, -1)
	subsections := make([]Subsection, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[0]:end])
		if body == "" {
			continue
		}
		subsections = append(subsections, Subsection{
			Marker: text[loc[0]:loc[1]],
			Text:   body,
			Offset: loc[0],
		})
	}
	return subsections
}

// ExtractAmendments finds "[Amendment: <date>: <description>]" markers.
// The marker content is split on its first colon. Each amendment is
// attributed to the closest subsection marker preceding it, if any.
func ExtractAmendments(text, section string) []core.Amendment {
	matches := amendmentPattern.FindAllStringSubmatchIndex(text, -1)
	amendments := make([]core.Amendment, 0, len(matches))
	for _, m := range matches {
		content := strings.TrimSpace(text[m[2]:m[3]])
		date, description, found := strings.Cut(content, ":")
		date = strings.TrimSpace(date)
		if found {
			description = strings.TrimSpace(description)
		}

		amendments = append(amendments, core.Amendment{
			Section:     section,
			Subsection:  precedingSubsection(text, m[0]),
			Text:        content,
			Date:        date,
			Description: description,
		})
	}
	return amendments
}

// precedingSubsection returns the last subsection marker before offset.
func precedingSubsection(text string, offset int) string {
	locs := subsectionPattern.FindAllStringIndex(text[:offset], -1)
	if len(locs) == 0 {
		return ""
	}
	last := locs[len(locs)-1]
	return text[last[0]:last[1]]
}

// ExtractNotes returns the trimmed text of every line that begins with "Note:".
func ExtractNotes(text string) []string {
	matches := notePattern.FindAllStringSubmatch(text, -1)
	notes := make([]string, 0, len(matches))
	for _, m := range matches {
		if note := strings.TrimSpace(m[1]); note != "" {
			notes = append(notes, note)
		}
	}
	return notes
}

// ExtractDefinitions finds `"term" means ...` clauses. The definition runs
// up to the next period and carries 100 characters of surrounding context.
// A term defined twice keeps its last definition.
func ExtractDefinitions(text string) map[string]core.Definition {
	matches := definitionPattern.FindAllStringSubmatchIndex(text, -1)
	definitions := make(map[string]core.Definition, len(matches))
	for _, m := range matches {
		term := strings.TrimSpace(text[m[2]:m[3]])
		definitions[term] = core.Definition{
			Term:       term,
			Definition: strings.TrimSpace(text[m[4]:m[5]]),
			Context:    contextWindow(text, m[0], m[1], definitionContextRadius),
		}
	}
	return definitions
}

// ExtractCrossReferences finds every "Section N" or "Section N.N" reference,
// in order of appearance, each with 50 characters of trimmed context.
func ExtractCrossReferences(text string) []core.SectionRef {
	locs := crossRefPattern.FindAllStringIndex(text, -1)
	refs := make([]core.SectionRef, 0, len(locs))
	for _, loc := range locs {
		refs = append(refs, core.SectionRef{
			Section: text[loc[0]:loc[1]],
			Context: strings.TrimSpace(contextWindow(text, loc[0], loc[1], crossRefContextRadius)),
		})
	}
	return refs
}

// contextWindow returns text[start-radius:end+radius], counted in characters
// and clipped to the bounds of text.
func contextWindow(text string, start, end, radius int) string {
	from := start
	for n := 0; n < radius && from > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for n := 0; n < radius && to < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return text[from:to]
}
