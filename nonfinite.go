package geomentions

import (
	"bytes"

	"golang.org/x/text/transform"
)

var (
	jsonNull        = []byte("null")
	nonFiniteTokens = [][]byte{[]byte("NaN"), []byte("Infinity"), []byte("-Infinity")}
)

// nonFiniteToNull rewrites the bare NaN, Infinity and -Infinity tokens that
// Python's json module emits into JSON null. Text inside strings is copied
// untouched, so names such as "NaNa" survive.
type nonFiniteToNull struct {
	inString bool
	escaped  bool
}

func (t *nonFiniteToNull) Reset() {
	*t = nonFiniteToNull{}
}

func (t *nonFiniteToNull) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]

		if !t.inString && (c == 'N' || c == 'I' || c == '-') {
			n, partial := matchNonFinite(src[nSrc:])
			if partial && !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}
			if n > 0 {
				if len(dst)-nDst < len(jsonNull) {
					return nDst, nSrc, transform.ErrShortDst
				}
				nDst += copy(dst[nDst:], jsonNull)
				nSrc += n
				continue
			}
		}

		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = c
		nDst++
		nSrc++

		switch {
		case !t.inString:
			t.inString = c == '"'
		case t.escaped:
			t.escaped = false
		case c == '\\':
			t.escaped = true
		case c == '"':
			t.inString = false
		}
	}
	return nDst, nSrc, nil
}

// matchNonFinite reports the length of the non-finite token at the start of
// b, or partial when b ends inside what could still become one.
func matchNonFinite(b []byte) (n int, partial bool) {
	for _, tok := range nonFiniteTokens {
		switch {
		case bytes.HasPrefix(b, tok):
			return len(tok), false
		case len(b) < len(tok) && bytes.HasPrefix(tok, b):
			return 0, true
		}
	}
	return 0, false
}
