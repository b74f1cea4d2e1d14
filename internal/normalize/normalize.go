// Package normalize canonicalizes free text and genealogical dates into
// the comparable forms consumed by fingerprinting and display diffing.
// Both callers MUST use these functions identically: a fingerprint computed
// over differently-normalized fields is a different fingerprint.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuation is the fixed set replaced by a single space before
// whitespace collapsing. Kept deliberately small; anything not listed
// passes through untouched.
const punctuation = ".,;:!?'\"()[]{}<>/\\|-_"

// stripMarks removes combining marks after NFD decomposition, then
// recomposes. "Jöhn" and "John" normalize identically.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Text canonicalizes a free-text field: decompose and strip diacritics,
// case-fold, replace punctuation with spaces, collapse internal
// whitespace, trim. Side-effect free.
func Text(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform failures only occur on invalid UTF-8; fall back to
		// the raw string so the fingerprint is still deterministic.
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if strings.ContainsRune(punctuation, r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
