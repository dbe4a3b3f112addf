package tokenizer

import (
	"strings"
	"unicode"
)

// Counter estimates how many model tokens a text occupies.
type Counter interface {
	CountTokens(text string) int
}

var _ Counter = WordCounter{}

// WordCounter approximates tokens without a model vocabulary:
//   - letters and digits → one token per run
//   - Han characters → one token each
//   - every other non-space rune → its own token
type WordCounter struct{}

// CountTokens implements Counter.
func (WordCounter) CountTokens(text string) int {
	return len(Split(text))
}

// Split returns the tokens WordCounter counts.
func Split(s string) []string {
	var toks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			toks = append(toks, buf.String())
			buf.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()

		case unicode.Is(unicode.Han, r):
			flush()
			toks = append(toks, string(r))

		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			buf.WriteRune(r)

		default:
			flush()
			toks = append(toks, string(r))
		}
	}

	flush()
	return toks
}
