package segment

import (
	"sort"
	"strings"

	"github.com/poiesic/lexrag/core"
)

// typeRules is scanned in order and the first matching rule wins, no matter
// where in the text its keyword appears. Definitions therefore beat
// obligations: a definition clause containing "shall" is still a definition.
var typeRules = []struct {
	contentType core.ContentType
	keywords    []string
}{
	{core.ContentTypeDefinition, []string{"means", "definition"}},
	{core.ContentTypeRequirement, []string{"shall", "must"}},
	{core.ContentTypeProcedure, []string{"may", "procedure"}},
	{core.ContentTypePenalty, []string{"offence", "liable"}},
	{core.ContentTypeAmendment, []string{"[Amendment:"}},
	{core.ContentTypeNote, []string{"Note:"}},
}

// DetermineType classifies text by keyword priority.
// Text matching no rule is a requirement.
func DetermineType(text string) core.ContentType {
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.contentType
			}
		}
	}
	return core.ContentTypeRequirement
}

const maxTopics = 5

// Words ignored when extracting topics. Anything of three characters or
// fewer is dropped before this list is consulted.
var topicStopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true, "were": true,
	"been": true, "they": true, "them": true, "than": true, "into": true, "upon": true,
	"such": true, "which": true, "there": true, "these": true, "those": true,
	"where": true, "when": true, "will": true, "each": true,
}

// ExtractTopics returns up to five of the most frequent significant words.
// Text is lowercased and stripped of everything except ASCII word characters
// and whitespace. Words of three characters or fewer and stop words are
// skipped. Ties keep the order of first appearance.
func ExtractTopics(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\f', r == '\v':
			return r
		}
		return -1
	}, strings.ToLower(text))

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 3 || topicStopWords[word] {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxTopics {
		order = order[:maxTopics]
	}
	return order
}
