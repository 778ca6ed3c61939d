// Package textnorm canonicalizes free-text administrative names so that
// map lookups are insensitive to case, diacritics, and punctuation
// variants. Every index key and every query key in this module goes
// through Normalize; nothing else may build lookup keys.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes to NFD, removes combining marks, and
// recomposes, turning e.g. "Łódź" into "Łodz". The stroked Ł is not a
// combining mark, so it is folded separately below.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// polishFold maps the Polish letters that survive combining-mark
// removal onto their ASCII bases.
var polishFold = strings.NewReplacer("ł", "l", "Ł", "l")

// Normalize returns the canonical lookup form of text: lowercase,
// diacritics stripped, hyphens treated as spaces, runs of whitespace
// collapsed to a single space, leading/trailing space trimmed.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	folded, _, err := transform.String(stripDiacritics, lowered)
	if err != nil {
		// Transform only fails on invalid UTF-8; fall back to the
		// lowercased input so lookups still get a stable key.
		folded = lowered
	}
	folded = polishFold.Replace(folded)
	folded = strings.ReplaceAll(folded, "-", " ")
	return strings.Join(strings.Fields(folded), " ")
}
