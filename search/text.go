package search

import (
	"strings"
	"unicode"
)

// Words too common to count as evidence of a verbatim match. News
// queries are short, so anything left after filtering is meaningful.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "from": {},
	"is": {}, "are": {}, "was": {}, "be": {}, "it": {}, "this": {},
	"that": {}, "have": {}, "not": {}, "but": {}, "by": {}, "as": {},
}

// queryTerms lowercases text, strips surrounding punctuation from each
// word, and drops stop words.
func queryTerms(text string) []string {
	var terms []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		term := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if term == "" {
			continue
		}
		if _, skip := stopWords[term]; skip {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// containsAllQueryWords reports whether every meaningful query term
// appears somewhere in the document. An all-stop-word query never
// matches; boosting on it would promote everything.
func containsAllQueryWords(document, query string) bool {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return false
	}

	present := make(map[string]struct{})
	for _, term := range queryTerms(document) {
		present[term] = struct{}{}
	}

	for _, term := range terms {
		if _, ok := present[term]; !ok {
			return false
		}
	}
	return true
}
