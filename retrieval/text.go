package retrieval

import "strings"

// Stop words ignored when deciding whether a query already mentions a term
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "does": true, "can": true,
}

// tokenize splits text into words, lowercases, and trims punctuation.
func tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}

	return tokens
}

// tokenizeAndFilter is tokenize with stop words removed.
func tokenizeAndFilter(text string) []string {
	tokens := tokenize(text)
	filtered := tokens[:0]
	for _, token := range tokens {
		if !stopWords[token] {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// keyword is a lowercase word sequence matched on word boundaries.
type keyword string

// newKeywords normalizes phrases into keywords, dropping blank ones.
func newKeywords(phrases []string) []keyword {
	keywords := make([]keyword, 0, len(phrases))
	for _, phrase := range phrases {
		if tokens := tokenize(phrase); len(tokens) > 0 {
			keywords = append(keywords, keyword(" "+strings.Join(tokens, " ")+" "))
		}
	}
	return keywords
}

// matchesAny reports whether text contains any keyword as a whole-word phrase.
func matchesAny(text string, keywords []keyword) bool {
	if len(keywords) == 0 {
		return false
	}
	padded := " " + strings.Join(tokenize(text), " ") + " "
	for _, k := range keywords {
		if strings.Contains(padded, string(k)) {
			return true
		}
	}
	return false
}

// expandQuery appends each term whose words the query does not already contain.
func expandQuery(query string, terms []string) string {
	if len(terms) == 0 {
		return query
	}

	present := make(map[string]bool)
	for _, word := range tokenizeAndFilter(query) {
		present[word] = true
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(query))
	for _, term := range terms {
		words := tokenizeAndFilter(term)
		missing := false
		for _, w := range words {
			if !present[w] {
				missing = true
				present[w] = true
			}
		}
		if missing {
			b.WriteByte(' ')
			b.WriteString(strings.TrimSpace(term))
		}
	}
	return b.String()
}
