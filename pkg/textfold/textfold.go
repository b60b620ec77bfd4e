// Package textfold strips diacritics so that user-typed text can be matched
// and used in object names regardless of accents.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes combining marks: "muéstrame" becomes "muestrame"
func Fold(s string) string {
	// transformers keep state and are built per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Command normalizes a chat message for command matching: accents folded,
// lower case, inner whitespace collapsed
func Command(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(Fold(s))), " ")
}

// Slug turns free text into a storage-safe name component
func Slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range Fold(strings.TrimSpace(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '.':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
