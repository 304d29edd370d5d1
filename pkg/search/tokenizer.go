package search

import (
	"unicode"
)

type Token string

type Tokenizer struct {
	MaxTokens int
}

var commonIssues = map[rune]rune{
	'ö': 'o',
	'ä': 'a',
	'å': 'a',
	'é': 'e',
	'è': 'e',
	'ê': 'e',
	'ë': 'e',
	'ï': 'i',
	'î': 'i',
	'ô': 'o',
	'ü': 'u',
	'û': 'u',
	'ÿ': 'y',
	'ç': 'c',
	'ñ': 'n',
	'ß': 's',
	'æ': 'a',
	'ø': 'o',
	'Ø': 'o',
}

// NormalizeWord lower-cases and folds common diacritics. Letters, digits,
// '/' and '-' survive since sizes like 225/45R17 are meaningful terms.
func NormalizeWord(text string) Token {
	ret := make([]rune, 0, len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' || r == '-' {
			l := unicode.ToLower(r)
			if replacement, ok := commonIssues[l]; ok {
				l = replacement
			}
			ret = append(ret, l)
		}
	}
	for len(ret) > 0 && (ret[0] == '-' || ret[0] == '/') {
		ret = ret[1:]
	}
	for len(ret) > 0 && (ret[len(ret)-1] == '-' || ret[len(ret)-1] == '/') {
		ret = ret[:len(ret)-1]
	}
	return Token(ret)
}

func isSeparator(chr rune) bool {
	switch chr {
	case ' ', '\n', '\t', ',', ':', '.', '!', '?', ';', '(', ')', '[', ']', '{', '}', '"', '\'', '|':
		return true
	}
	return false
}

// SplitWords calls onWord for every separator-delimited word until it
// returns false.
func SplitWords(text string, onWord func(word string, count int, last bool) bool) {
	count := 0
	lastSplit := 0
	for idx, chr := range text {
		if isSeparator(chr) {
			if idx > lastSplit {
				if !onWord(text[lastSplit:idx], count, false) {
					return
				}
				count++
			}
			lastSplit = idx + len(string(chr))
		}
	}
	if lastSplit < len(text) {
		onWord(text[lastSplit:], count, true)
	}
}

// Tokenize emits each distinct normalized token once.
func (t *Tokenizer) Tokenize(text string, onToken func(token Token, original string, count int, last bool) bool) {
	tokenNumber := 0
	found := map[Token]struct{}{}
	SplitWords(text, func(word string, count int, last bool) bool {
		normalized := NormalizeWord(word)
		if len(normalized) == 0 {
			return true
		}
		if _, hasWord := found[normalized]; hasWord {
			return true
		}
		found[normalized] = struct{}{}
		if !onToken(normalized, word, tokenNumber, last) {
			return false
		}
		tokenNumber++
		return t.MaxTokens <= 0 || tokenNumber < t.MaxTokens
	})
}

func (t *Tokenizer) Tokens(text string) []Token {
	ret := make([]Token, 0)
	t.Tokenize(text, func(token Token, _ string, _ int, _ bool) bool {
		ret = append(ret, token)
		return true
	})
	return ret
}
