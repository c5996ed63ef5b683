package alias

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize prepares a raw field label for matching: combining marks (niqqud)
// stripped, case folded, punctuation collapsed to single spaces. Square
// brackets and the wildcard token survive because form headers delimit item
// names with brackets and rules use them for capture.
func Normalize(label string) string {
	stripped, _, err := transform.String(stripMarks, label)
	if err != nil {
		stripped = label
	}
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case r == '[' || r == ']' || r == '*':
			b.WriteRune(r)
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// looksLikeNumericCode reports whether a captured item is a bare numeric
// identifier (a tank number, not an equipment item).
func looksLikeNumericCode(item string) bool {
	seen := false
	for _, r := range item {
		if unicode.IsSpace(r) {
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
		seen = true
	}
	return seen
}
