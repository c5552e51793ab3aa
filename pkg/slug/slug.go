package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name. Accented Latin
// letters are folded to ASCII.
//
// Examples:
//   - "Hatfield-McCoy Trails" → "hatfield-mccoy-trails"
//   - "Pismo Dunes (Oceano)" → "pismo-dunes-oceano"
//   - "Côte Sauvage" → "cote-sauvage"
func Generate(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	s := strings.ToLower(strings.TrimSpace(folded))
	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
