package gallery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeIdentity normalizes an identity label for comparison
// (lowercase, no diacritics, spaces for dashes, trimmed).
// Stored labels keep their original form; normalization only affects lookups.
func NormalizeIdentity(identity string) string {
	identity = RemoveDiacritics(identity)
	identity = strings.ToLower(identity)
	identity = strings.ReplaceAll(identity, "-", " ")
	return strings.TrimSpace(identity)
}
