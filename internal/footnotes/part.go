package footnotes

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cirdoc/internal/container"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

// Reserved footnote ids: the separator and continuation separator notes.
const (
	SeparatorID             = 0
	ContinuationSeparatorID = 1
	FirstNoteID             = 2
)

var (
	tagFootnotes = ooxml.W("footnotes")
	tagFootnote  = ooxml.W("footnote")
	attrType     = ooxml.W("type")
)

// Note is one content note of the footnotes part.
type Note struct {
	ID         int    `json:"id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Text is the note body as rendered after the reference marker.
func (n Note) Text() string { return n.Term + " : " + n.Definition }

// ExistingNote is a note already present in a footnotes part.
type ExistingNote struct {
	ID   int
	Type string
	Text string
}

// ReadNotes lists the notes of a footnotes part. Empty input yields none.
func ReadNotes(part []byte) ([]ExistingNote, error) {
	if len(part) == 0 {
		return nil, nil
	}
	doc, err := ooxml.Parse(part)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", container.PartFootnotes, err)
	}
	var out []ExistingNote
	for _, fn := range doc.Root.ChildrenNamed(tagFootnote) {
		id, err := strconv.Atoi(strings.TrimSpace(fn.AttrOr(wordml.AttrID, "")))
		if err != nil {
			continue
		}
		var lines []string
		for _, p := range wordml.AllParagraphs(fn) {
			lines = append(lines, strings.TrimSpace(wordml.Text(p)))
		}
		out = append(out, ExistingNote{ID: id, Type: fn.AttrOr(attrType, ""), Text: strings.Join(lines, "\n")})
	}
	return out, nil
}

// NextID returns the first free content-note id: one past the highest id in
// the part, and never below FirstNoteID.
func NextID(part []byte) (int, error) {
	notes, err := ReadNotes(part)
	if err != nil {
		return 0, err
	}
	next := FirstNoteID
	for _, n := range notes {
		if n.ID+1 > next {
			next = n.ID + 1
		}
	}
	return next, nil
}

// BuildOrExtend returns a footnotes part holding notes. Without an existing
// part, one is synthesized with the two separator notes. Notes whose id is
// already present are rewritten in place; new notes are appended in id
// order. Feeding the output back in with the same notes changes nothing.
func BuildOrExtend(existing []byte, notes []Note) ([]byte, error) {
	var doc *ooxml.Document
	if len(existing) > 0 {
		d, err := ooxml.Parse(existing)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", container.PartFootnotes, err)
		}
		if d.Root.Name != tagFootnotes {
			return nil, fmt.Errorf("%s: unexpected root <%s>", container.PartFootnotes, d.Root.Name.Local)
		}
		doc = d
	} else {
		root := ooxml.El(tagFootnotes)
		root.Declare("w", ooxml.NSMain)
		root.Declare("r", ooxml.NSRel)
		root.Prefix = "w"
		doc = &ooxml.Document{Root: root}
	}
	ensureSeparators(doc.Root)

	byID := make(map[string]*ooxml.Element)
	for _, fn := range doc.Root.ChildrenNamed(tagFootnote) {
		byID[strings.TrimSpace(fn.AttrOr(wordml.AttrID, ""))] = fn
	}
	sorted := append([]Note(nil), notes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, n := range sorted {
		if n.ID < FirstNoteID {
			return nil, fmt.Errorf("footnote id %d is reserved", n.ID)
		}
		key := strconv.Itoa(n.ID)
		if fn, ok := byID[key]; ok {
			fn.RemoveAttr(attrType)
			fn.Clear()
			fn.Append(noteParagraph(n))
			continue
		}
		fn := ooxml.El(tagFootnote, noteParagraph(n)).With(wordml.AttrID, key)
		doc.Root.Append(fn)
		byID[key] = fn
	}
	return doc.Bytes(), nil
}

// ensureSeparators adds the separator and continuation separator notes
// when the part lacks them.
func ensureSeparators(root *ooxml.Element) {
	has := map[string]bool{}
	ids := map[string]bool{}
	for _, fn := range root.ChildrenNamed(tagFootnote) {
		has[fn.AttrOr(attrType, "")] = true
		ids[strings.TrimSpace(fn.AttrOr(wordml.AttrID, ""))] = true
	}
	var add []ooxml.Node
	if !has["separator"] && !ids[strconv.Itoa(SeparatorID)] {
		add = append(add, separatorNote("separator", SeparatorID))
	}
	if !has["continuationSeparator"] && !ids[strconv.Itoa(ContinuationSeparatorID)] {
		add = append(add, separatorNote("continuationSeparator", ContinuationSeparatorID))
	}
	if len(add) > 0 {
		root.Insert(0, add...)
	}
}

func separatorNote(kind string, id int) *ooxml.Element {
	return ooxml.El(tagFootnote,
		ooxml.El(wordml.TagP,
			ooxml.El(wordml.TagPPr, ooxml.El(ooxml.W("spacing")).
				With(ooxml.W("after"), "0").
				With(ooxml.W("line"), "240").
				With(ooxml.W("lineRule"), "auto")),
			ooxml.El(wordml.TagR, ooxml.El(ooxml.W(kind))),
		),
	).With(attrType, kind).With(wordml.AttrID, strconv.Itoa(id))
}

// noteParagraph renders a content note: the footnoteRef marker, a tab, then
// "term : definition", in the FootnoteText paragraph style.
func noteParagraph(n Note) *ooxml.Element {
	return ooxml.El(wordml.TagP,
		ooxml.El(wordml.TagPPr, ooxml.El(wordml.TagPStyle).With(wordml.AttrVal, wordml.StyleFootnoteText)),
		ooxml.El(wordml.TagR,
			ooxml.El(wordml.TagRPr, ooxml.El(wordml.TagRStyle).With(wordml.AttrVal, wordml.StyleFootnoteReference)),
			ooxml.El(wordml.TagFootnoteRef),
		),
		ooxml.El(wordml.TagR, ooxml.El(wordml.TagTab)),
		wordml.TextRun(n.Text(), nil),
	)
}

// FootnotesTarget is the relationship target of the footnotes part,
// relative to the main document.
const FootnotesTarget = "footnotes.xml"

// EnsureRelationships adds the footnotes relationship to the main
// document's relationships part unless one of that type exists.
func EnsureRelationships(rels []byte) []byte {
	out, _ := container.EnsureRelationshipType(rels, container.RelTypeFootnotes, FootnotesTarget)
	return out
}

// EnsureContentTypeOverride declares the footnotes part in the manifest.
func EnsureContentTypeOverride(manifest []byte) []byte {
	return container.EnsureOverride(manifest, container.PartFootnotes, container.ContentTypeFootnotes)
}

// EnsureFootnoteStyles adds the FootnoteText paragraph style and the
// FootnoteReference character style to a style sheet that lacks them.
// Without them Word renders notes in the Normal style with an inline number.
func EnsureFootnoteStyles(styles []byte) ([]byte, error) {
	doc, err := ooxml.Parse(styles)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", container.PartStyles, err)
	}
	present := map[string]bool{}
	for _, st := range doc.Root.ChildrenNamed(ooxml.W("style")) {
		present[st.AttrOr(ooxml.W("styleId"), "")] = true
	}
	if present[wordml.StyleFootnoteText] && present[wordml.StyleFootnoteReference] {
		return styles, nil
	}
	if !present[wordml.StyleFootnoteText] {
		doc.Root.Append(ooxml.El(ooxml.W("style"),
			ooxml.El(ooxml.W("name")).With(wordml.AttrVal, "footnote text"),
			ooxml.El(ooxml.W("basedOn")).With(wordml.AttrVal, "Normal"),
			ooxml.El(ooxml.W("uiPriority")).With(wordml.AttrVal, "99"),
			ooxml.El(ooxml.W("unhideWhenUsed")),
			ooxml.El(wordml.TagPPr, ooxml.El(ooxml.W("spacing")).
				With(ooxml.W("after"), "0").
				With(ooxml.W("line"), "240").
				With(ooxml.W("lineRule"), "auto")),
			ooxml.El(wordml.TagRPr,
				ooxml.El(ooxml.W("sz")).With(wordml.AttrVal, "20"),
				ooxml.El(ooxml.W("szCs")).With(wordml.AttrVal, "20"),
			),
		).With(ooxml.W("type"), "paragraph").With(ooxml.W("styleId"), wordml.StyleFootnoteText))
	}
	if !present[wordml.StyleFootnoteReference] {
		doc.Root.Append(ooxml.El(ooxml.W("style"),
			ooxml.El(ooxml.W("name")).With(wordml.AttrVal, "footnote reference"),
			ooxml.El(ooxml.W("uiPriority")).With(wordml.AttrVal, "99"),
			ooxml.El(ooxml.W("unhideWhenUsed")),
			ooxml.El(wordml.TagRPr, ooxml.El(wordml.TagVertAlign).With(wordml.AttrVal, "superscript")),
		).With(ooxml.W("type"), "character").With(ooxml.W("styleId"), wordml.StyleFootnoteReference))
	}
	return doc.Bytes(), nil
}
