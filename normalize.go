package geomentions

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// symbolsToSpace turns every rune that is not a letter, mark, number or
// space into a space. Marks are kept so scripts that build graphemes from a
// base letter plus combining marks (Devanagari, Tamil, Vietnamese) survive.
var symbolsToSpace = runes.Map(func(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
		return r
	}
	return ' '
})

// Normalize converts raw text into the ordered word tokens used for lookup:
// NFKC composition, possessive removal ("Paris's" -> "Paris"), symbols and
// punctuation replaced by spaces, then a split on whitespace.
// Case is preserved. Never fails; empty or symbol-only input yields no tokens.
func Normalize(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToValidUTF8(text, "�")
	text = norm.NFKC.String(text)
	text = stripPossessives(text)
	text, _, _ = transform.String(symbolsToSpace, text)
	return strings.Fields(text)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’' || r == 'ʼ'
}

// stripPossessives deletes an apostrophe that directly follows a letter,
// together with the run of letters and marks after it. The "follows a
// letter" test looks at the original preceding rune, so "a'b'c" becomes "a".
func stripPossessives(s string) string {
	if !strings.ContainsFunc(s, isApostrophe) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	prev := rune(-1)
	skipping := false
	for _, r := range s {
		switch {
		case skipping && (unicode.IsLetter(r) || unicode.IsMark(r)):
			// possessive suffix
		case isApostrophe(r) && unicode.IsLetter(prev):
			skipping = true
		default:
			skipping = false
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
