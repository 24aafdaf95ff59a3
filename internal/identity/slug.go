package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugSeparator = "_"

var turkishLower = cases.Lower(language.Turkish)

// NormalizeASCII lower-cases text with Turkish rules and folds it onto ASCII:
// "İrem Öztürk" becomes "irem ozturk". Runes with no ASCII fold are kept.
func NormalizeASCII(text string) string {
	lowered := turkishLower.String(text)

	fold := transform.Chain(
		runes.Map(func(r rune) rune {
			if r == 'ı' {
				return 'i'
			}
			return r
		}),
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)

	out, _, err := transform.String(fold, lowered)
	if err != nil {
		return lowered
	}
	return out
}

// Slugify turns a display string into a URL-safe handle. Any run of characters
// outside [a-z0-9] (spaces, apostrophes, hyphens, punctuation) is one separator.
func Slugify(text string) string {
	normalized := NormalizeASCII(text)

	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(parts, slugSeparator)
}
