// Package titles normalizes heading text so template headings can be matched
// against requested section names.
//
// Matching is exact after normalization: "Contexte" never matches
// "Contexte et objectifs".
package titles

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numbering matches a leading section number such as "1.", "2.3)", "IV -"
// or "3 " before the title proper. A roman numeral needs a sub-number or
// punctuation after it, so words like "CV" or "MIC" stay.
var numbering = regexp.MustCompile(`^\s*(?:\d+(?:\.\d+)*\s*[.)\-–—]?|[IVXLCM]+(?:(?:\.\d+)+\s*[.)\-–—]?|\s*[.)\-–—]))\s+`)

var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u02bc", "'", "\u00a0", " ", "\u202f", " ")

// Normalize returns the comparison key of a heading or section name.
func Normalize(s string) string {
	s = apostrophes.Replace(s)
	s = numbering.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = stripAccents(s)
	return strings.ToLower(s)
}

// Equal reports whether two titles have the same normalized form.
func Equal(a, b string) bool { return Normalize(a) == Normalize(b) }

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
