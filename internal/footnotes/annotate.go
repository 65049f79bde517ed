package footnotes

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

// Match is a term occurrence in a paragraph's concatenated run text.
// Start and End are byte offsets; End is exclusive.
type Match struct {
	Start int
	End   int
	Term  string
}

// FindMatches returns the first occurrence of each term in text, keeping
// only non-overlapping spans. Longer terms are placed first, so a shorter
// term inside a longer match is discarded. The result is ordered by End,
// right to left, ready for in-place insertion.
func FindMatches(text string, terms []string) []Match {
	order := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			order = append(order, t)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return utf8.RuneCountInString(order[i]) > utf8.RuneCountInString(order[j])
	})

	var found []Match
	for _, term := range order {
		start := strings.Index(text, term)
		if start < 0 {
			continue
		}
		m := Match{Start: start, End: start + len(term), Term: term}
		if overlapsAny(m, found) {
			continue
		}
		found = append(found, m)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].End > found[j].End })
	return found
}

func overlapsAny(m Match, list []Match) bool {
	for _, o := range list {
		if m.Start < o.End && o.Start < m.End {
			return true
		}
	}
	return false
}

// Occurrence locates a match in a specific paragraph.
type Occurrence struct {
	Para  *ooxml.Element
	Match Match
}

// FindFirstOccurrences scans the paragraphs under root in document order
// and returns, per term, its first annotatable occurrence. A term shadowed
// by a longer overlapping term in one paragraph stays pending for later
// paragraphs. Scanning stops once every term is placed. The tree is not
// modified.
func FindFirstOccurrences(root *ooxml.Element, terms []string) map[string]Occurrence {
	pending := make(map[string]bool, len(terms))
	for _, t := range terms {
		if t != "" {
			pending[t] = true
		}
	}
	out := make(map[string]Occurrence, len(pending))
	if len(pending) == 0 {
		return out
	}
	for _, p := range wordml.AllParagraphs(root) {
		text := wordml.BuildRunIndex(p).Text()
		if text == "" {
			continue
		}
		var candidates []string
		for _, t := range terms {
			if pending[t] && strings.Contains(text, t) {
				candidates = append(candidates, t)
			}
		}
		for _, m := range FindMatches(text, candidates) {
			out[m.Term] = Occurrence{Para: p, Match: m}
			delete(pending, m.Term)
		}
		if len(pending) == 0 {
			break
		}
	}
	return out
}

// Placement is a footnote reference inserted in the body.
type Placement struct {
	ID   int
	Term string
}

// Annotate inserts a footnote reference run right after the first
// occurrence of each term. Ids are handed out from firstID in term order,
// to placed terms only. The text of every touched paragraph is unchanged;
// reference runs carry no w:t.
func Annotate(root *ooxml.Element, terms []string, firstID int) ([]Placement, error) {
	occ := FindFirstOccurrences(root, terms)
	if len(occ) == 0 {
		return nil, nil
	}

	ids := make(map[string]int, len(occ))
	var placed []Placement
	next := firstID
	for _, t := range terms {
		if _, ok := occ[t]; !ok {
			continue
		}
		if _, dup := ids[t]; dup {
			continue
		}
		ids[t] = next
		placed = append(placed, Placement{ID: next, Term: t})
		next++
	}

	// Group by paragraph, keeping document order of first appearance.
	var paras []*ooxml.Element
	byPara := make(map[*ooxml.Element][]Match)
	for _, pl := range placed {
		o := occ[pl.Term]
		if _, seen := byPara[o.Para]; !seen {
			paras = append(paras, o.Para)
		}
		byPara[o.Para] = append(byPara[o.Para], o.Match)
	}

	for _, p := range paras {
		ms := byPara[p]
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].End > ms[j].End })
		for _, m := range ms {
			ix := wordml.BuildRunIndex(p)
			_, at, err := ix.SplitRunAt(m.End)
			if err != nil {
				return nil, fmt.Errorf("annotate %q: %w", m.Term, err)
			}
			at.Insert(wordml.FootnoteReferenceRun(ids[m.Term]))
		}
	}
	return placed, nil
}

// FullText concatenates every w:t fragment under root, one per line. It is
// the text handed to the term-detection collaborator.
func FullText(root *ooxml.Element) string {
	ts := root.Descendants(wordml.TagT)
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Text()
	}
	return strings.Join(parts, "\n")
}
