package search

import (
	"strings"
	"unicode/utf8"
)

const (
	wordPrefixMinLength = 3
	substringMinLength  = 4
)

// IsPreciseMatch decides whether a free-text query matches a text.
// Exact or prefix matches win outright. Otherwise every query word must
// match a text word exactly, by prefix when the query word has at least
// three characters, or by prefix when the word contains '/' or '-'. As a
// last resort a query of four or more characters may match as a substring.
func IsPreciseMatch(text, query string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	q := strings.ToLower(strings.TrimSpace(query))
	if t == q {
		return true
	}
	if strings.HasPrefix(t, q) {
		return true
	}
	textWords := strings.Fields(t)
	queryWords := strings.Fields(q)
	if len(queryWords) > 0 && allWordsMatch(textWords, queryWords) {
		return true
	}
	if utf8.RuneCountInString(q) >= substringMinLength {
		return strings.Contains(t, q)
	}
	return false
}

func allWordsMatch(textWords, queryWords []string) bool {
	for _, qw := range queryWords {
		if !anyWordMatches(textWords, qw) {
			return false
		}
	}
	return true
}

func anyWordMatches(textWords []string, qw string) bool {
	allowPrefix := utf8.RuneCountInString(qw) >= wordPrefixMinLength || strings.ContainsAny(qw, "/-")
	for _, tw := range textWords {
		if tw == qw {
			return true
		}
		if allowPrefix && strings.HasPrefix(tw, qw) {
			return true
		}
	}
	return false
}

// MatchesRecordText tests brand, model and their concatenation independently.
func MatchesRecordText(brand, model, query string) bool {
	return IsPreciseMatch(brand, query) ||
		IsPreciseMatch(model, query) ||
		IsPreciseMatch(brand+" "+model, query)
}
