package wordml

import (
	"fmt"

	"cirdoc/internal/ooxml"
)

// Segment is one text-bearing fragment of a paragraph: a w:t inside a run,
// with its offsets in the paragraph's concatenated text. Offsets are byte
// offsets into the UTF-8 text; End is exclusive.
type Segment struct {
	Run   *ooxml.Element
	Frag  *ooxml.Element // the w:t element
	Text  string
	Start int
	End   int
}

// RunIndex is an ordered, offset-addressable view of a paragraph's text runs.
// Runs without w:t (tabs, breaks, footnote references, drawings) contribute
// no text and are not indexed.
type RunIndex struct {
	Para     *ooxml.Element
	Segments []Segment
	Len      int
}

// InsertionPoint is a position among the children of Parent.
type InsertionPoint struct {
	Parent *ooxml.Element
	Index  int
}

// Insert places nodes at the point and advances it past them.
func (ip *InsertionPoint) Insert(nodes ...ooxml.Node) {
	ip.Parent.Insert(ip.Index, nodes...)
	ip.Index += len(nodes)
}

// BuildRunIndex indexes the w:t fragments of a paragraph in document order.
func BuildRunIndex(p *ooxml.Element) *RunIndex {
	ix := &RunIndex{Para: p}
	pos := 0
	for _, r := range Runs(p) {
		for _, t := range r.ChildrenNamed(TagT) {
			s := t.Text()
			ix.Segments = append(ix.Segments, Segment{Run: r, Frag: t, Text: s, Start: pos, End: pos + len(s)})
			pos += len(s)
		}
	}
	ix.Len = pos
	return ix
}

// Text returns the concatenation of all indexed fragments.
func (ix *RunIndex) Text() string {
	b := make([]byte, 0, ix.Len)
	for _, s := range ix.Segments {
		b = append(b, s.Text...)
	}
	return string(b)
}

// Locate returns the index of the segment owning the character that ends at
// offset, i.e. the segment with Start < offset <= End.
func (ix *RunIndex) Locate(offset int) (int, bool) {
	for i, s := range ix.Segments {
		if s.Start < offset && offset <= s.End {
			return i, true
		}
	}
	return -1, false
}

// SplitRunAt cuts the paragraph's text at offset. The run owning the text
// that ends at offset keeps everything up to offset; whatever followed in
// that run (the rest of the fragment, later tabs, breaks or fragments) moves
// to a new run with the same properties placed right after it.
//
// It returns the left run and the insertion point between the left run and
// the remainder, where new sibling runs (such as a footnote reference) go.
// A cut at a run boundary creates no empty run. The index is stale after a
// split; rebuild it before the next lookup.
func (ix *RunIndex) SplitRunAt(offset int) (*ooxml.Element, InsertionPoint, error) {
	i, ok := ix.Locate(offset)
	if !ok {
		return nil, InsertionPoint{}, fmt.Errorf("split at %d: offset outside paragraph text (len %d)", offset, ix.Len)
	}
	seg := ix.Segments[i]
	run := seg.Run
	parent := run.Parent
	if parent == nil {
		return nil, InsertionPoint{}, fmt.Errorf("split at %d: run is detached", offset)
	}

	k := offset - seg.Start
	left, right := seg.Text[:k], seg.Text[k:]

	// Children after the fragment leave the run together with the right text.
	children := run.Children
	fi := run.Index(seg.Frag)
	var trailing []ooxml.Node
	for _, c := range children[fi+1:] {
		trailing = append(trailing, c)
	}

	SetFragment(seg.Frag, left)
	point := InsertionPoint{Parent: parent, Index: parent.Index(run) + 1}

	if right == "" && !hasContent(trailing) {
		return run, point, nil
	}
	rest := ooxml.El(TagR)
	if rpr := run.Child(TagRPr); rpr != nil {
		rest.Append(rpr.Clone())
	}
	if right != "" {
		rest.Append(TextElem(right))
	}
	for _, c := range trailing {
		run.Remove(c)
		rest.Append(c)
	}
	parent.Insert(point.Index, rest)
	return run, point, nil
}

// hasContent reports whether nodes hold anything other than whitespace text.
func hasContent(nodes []ooxml.Node) bool {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ooxml.Element:
			return true
		case *ooxml.Text:
			for _, c := range v.Data {
				if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
					return true
				}
			}
		}
	}
	return false
}
