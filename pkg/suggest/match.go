package suggest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	exactScore     = 1.0
	prefixScore    = 0.9
	wordScore      = 0.8
	allWordsScore  = 0.7
	substringScore = 0.5
)

func isWordSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '-', '/', ',', '|', '.', '(', ')', '&', '+':
		return true
	}
	return false
}

func entryWords(text string) []string {
	return strings.FieldsFunc(text, isWordSeparator)
}

// IsGoodMatch scores how well entryText completes query, from 0 (no
// match) to 1 (exact). Queries of three runes or fewer never match inside
// a word.
func IsGoodMatch(entryText, query string) float64 {
	text := strings.ToLower(strings.TrimSpace(entryText))
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || text == "" {
		return 0
	}
	if text == q {
		return exactScore
	}
	if strings.HasPrefix(text, q) {
		return prefixScore
	}
	words := entryWords(text)
	for _, w := range words {
		if strings.HasPrefix(w, q) {
			return wordScore
		}
	}
	if queryWords := strings.Fields(q); len(queryWords) > 1 && allWordsPrefix(queryWords, words) {
		return allWordsScore
	}
	if utf8.RuneCountInString(q) <= 3 {
		return 0
	}
	if strings.Contains(text, q) {
		return substringScore
	}
	return 0
}

func allWordsPrefix(queryWords, words []string) bool {
	for _, qw := range queryWords {
		found := false
		for _, w := range words {
			if strings.HasPrefix(w, qw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
