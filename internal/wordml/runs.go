package wordml

import (
	"strconv"
	"strings"

	"cirdoc/internal/ooxml"
)

// Footnote markup names.
var (
	TagFootnoteReference = ooxml.W("footnoteReference")
	TagFootnoteRef       = ooxml.W("footnoteRef")
	TagVertAlign         = ooxml.W("vertAlign")
	AttrID               = ooxml.W("id")
)

// Style ids used for footnotes.
const (
	StyleFootnoteText      = "FootnoteText"
	StyleFootnoteReference = "FootnoteReference"
)

// NeedsPreserve reports whether a text fragment has whitespace that would be
// collapsed without xml:space="preserve".
func NeedsPreserve(s string) bool {
	return s != "" && s != strings.TrimSpace(s)
}

// TextElem builds a w:t element, marking significant whitespace.
func TextElem(s string) *ooxml.Element {
	t := ooxml.El(TagT)
	t.SetText(s)
	if NeedsPreserve(s) {
		t.SetAttr(ooxml.XMLSpace, "preserve")
	}
	return t
}

// SetFragment rewrites the text of a w:t element, updating xml:space.
func SetFragment(t *ooxml.Element, s string) {
	t.SetText(s)
	if NeedsPreserve(s) {
		t.SetAttr(ooxml.XMLSpace, "preserve")
	}
}

// TextRun builds a run holding text. rpr, when non-nil, becomes the run
// properties. Line breaks and tabs map to w:br and w:tab.
func TextRun(text string, rpr *ooxml.Element) *ooxml.Element {
	r := ooxml.El(TagR)
	if rpr != nil {
		r.Append(rpr)
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.Append(ooxml.El(TagBr))
		}
		for j, cell := range strings.Split(line, "\t") {
			if j > 0 {
				r.Append(ooxml.El(TagTab))
			}
			if cell != "" {
				r.Append(TextElem(cell))
			}
		}
	}
	return r
}

// FootnoteReferenceRun builds the superscript reference marker placed in
// body text for footnote id.
func FootnoteReferenceRun(id int) *ooxml.Element {
	return ooxml.El(TagR,
		ooxml.El(TagRPr,
			ooxml.El(TagRStyle).With(AttrVal, StyleFootnoteReference),
			ooxml.El(TagVertAlign).With(AttrVal, "superscript"),
		),
		ooxml.El(TagFootnoteReference).With(AttrID, strconv.Itoa(id)),
	)
}

// IsFootnoteReferenceRun reports whether r carries a w:footnoteReference.
func IsFootnoteReferenceRun(r *ooxml.Element) bool {
	return r.Name == TagR && r.Child(TagFootnoteReference) != nil
}
