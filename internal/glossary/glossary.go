// Package glossary prepares the term list handed to the footnote pass.
//
// Terms come from an external detection step and are trusted for relevance;
// this package only cleans them up: trimmed text, a definition for every
// term, one entry per exact term, an optional cap.
package glossary

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultDefinition fills entries the provider left without a definition.
const DefaultDefinition = "acronyme technique."

// Entry is one glossary term. FootnoteID is set once the term is placed.
type Entry struct {
	Term       string `yaml:"term" json:"term"`
	Definition string `yaml:"definition" json:"definition"`
	FootnoteID int    `yaml:"-" json:"footnote_id,omitempty"`
}

// Policy controls Prepare.
type Policy struct {
	// DefaultDefinition replaces DefaultDefinition when non-empty.
	DefaultDefinition string
	// MaxTerms caps the list after de-duplication; 0 means no cap.
	MaxTerms int
	// Acronyms adds all-caps tokens found in the document text that the
	// provider missed.
	Acronyms bool
}

func (p Policy) fallback() string {
	if d := strings.TrimSpace(p.DefaultDefinition); d != "" {
		return withPeriod(d)
	}
	return DefaultDefinition
}

// Prepare returns the cleaned term list. text is the document text scanned
// for acronyms when the policy asks for it.
func Prepare(entries []Entry, text string, pol Policy) []Entry {
	all := append([]Entry(nil), entries...)
	if pol.Acronyms {
		known := make(map[string]bool, len(all))
		for _, e := range all {
			known[strings.TrimSpace(e.Term)] = true
		}
		for _, a := range DetectAcronyms(text) {
			if !known[a] {
				all = append(all, Entry{Term: a})
			}
		}
	}

	out := make([]Entry, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, e := range all {
		term := strings.TrimSpace(e.Term)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		def := strings.TrimSpace(e.Definition)
		if def == "" {
			def = pol.fallback()
		} else {
			def = withPeriod(def)
		}
		out = append(out, Entry{Term: term, Definition: def})
		if pol.MaxTerms > 0 && len(out) >= pol.MaxTerms {
			break
		}
	}
	return out
}

func withPeriod(s string) string {
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

var acronymRE = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,7}\b`)

// DetectAcronyms returns the distinct all-caps tokens of text (2 to 8
// characters, starting with a letter), sorted.
func DetectAcronyms(text string) []string {
	set := map[string]bool{}
	for _, m := range acronymRE.FindAllString(text, -1) {
		set[m] = true
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
