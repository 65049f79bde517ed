// Package wordml provides WordprocessingML helpers on top of the ooxml tree:
// body and paragraph access, rendered paragraph text, run construction, the
// style sheet, and the offset-addressable run index used for in-place edits.
package wordml

import (
	"errors"
	"strings"

	"cirdoc/internal/ooxml"
)

// Frequently used element names.
var (
	TagBody      = ooxml.W("body")
	TagP         = ooxml.W("p")
	TagR         = ooxml.W("r")
	TagT         = ooxml.W("t")
	TagPPr       = ooxml.W("pPr")
	TagRPr       = ooxml.W("rPr")
	TagPStyle    = ooxml.W("pStyle")
	TagRStyle    = ooxml.W("rStyle")
	TagTab       = ooxml.W("tab")
	TagBr        = ooxml.W("br")
	TagSectPr    = ooxml.W("sectPr")
	TagHyperlink = ooxml.W("hyperlink")
	AttrVal      = ooxml.W("val")
)

// ErrNoBody is returned when a main document part has no w:body.
var ErrNoBody = errors.New("wordml: document has no body")

// Body returns the w:body element of a parsed main document part.
func Body(doc *ooxml.Document) (*ooxml.Element, error) {
	if doc == nil || doc.Root == nil || doc.Root.Name != ooxml.W("document") {
		return nil, ErrNoBody
	}
	b := doc.Root.Child(TagBody)
	if b == nil {
		return nil, ErrNoBody
	}
	return b, nil
}

// BodyParagraphs returns the paragraphs that are direct children of the body,
// in order. Paragraphs inside tables are not included.
func BodyParagraphs(body *ooxml.Element) []*ooxml.Element {
	return body.ChildrenNamed(TagP)
}

// AllParagraphs returns every paragraph under root in document order,
// including those nested in tables and text boxes.
func AllParagraphs(root *ooxml.Element) []*ooxml.Element {
	return root.Descendants(TagP)
}

// StyleID returns the paragraph style id (w:pPr/w:pStyle/@w:val), or "".
func StyleID(p *ooxml.Element) string {
	ppr := p.Child(TagPPr)
	if ppr == nil {
		return ""
	}
	ps := ppr.Child(TagPStyle)
	if ps == nil {
		return ""
	}
	return ps.AttrOr(AttrVal, "")
}

// Text returns the rendered text of a paragraph: w:t fragments, with w:tab as
// "\t" and w:br / w:cr as "\n". Runs nested in hyperlinks and tracked
// insertions are included.
func Text(p *ooxml.Element) string {
	var sb strings.Builder
	for _, r := range Runs(p) {
		for _, c := range r.Elements() {
			switch c.Name {
			case TagT:
				sb.WriteString(c.Text())
			case TagTab:
				sb.WriteByte('\t')
			case TagBr, ooxml.W("cr"):
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

// Texts returns the rendered text of each body-level paragraph.
func Texts(body *ooxml.Element) []string {
	ps := BodyParagraphs(body)
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = Text(p)
	}
	return out
}

// runContainers are inline wrappers whose runs still belong to the paragraph text.
var runContainers = map[ooxml.Name]bool{
	TagHyperlink:         true,
	ooxml.W("ins"):       true,
	ooxml.W("smartTag"):  true,
	ooxml.W("customXml"): true,
}

// Runs returns the runs of a paragraph in order, descending into hyperlinks,
// tracked insertions and similar inline wrappers.
func Runs(p *ooxml.Element) []*ooxml.Element {
	var out []*ooxml.Element
	var walk func(e *ooxml.Element)
	walk = func(e *ooxml.Element) {
		for _, c := range e.Elements() {
			switch {
			case c.Name == TagR:
				out = append(out, c)
			case runContainers[c.Name]:
				walk(c)
			}
		}
	}
	walk(p)
	return out
}

// SetText replaces the content of a paragraph with text, keeping its
// paragraph properties. The properties of the first formatted run are carried
// over to the new run. "\n" becomes a line break and "\t" a tab.
func SetText(p *ooxml.Element, text string) {
	var rpr *ooxml.Element
	for _, r := range Runs(p) {
		if x := r.Child(TagRPr); x != nil {
			rpr = x.Clone()
			break
		}
	}
	ppr := p.Child(TagPPr)
	p.Clear()
	if ppr != nil {
		p.Append(ppr)
	}
	if text != "" {
		p.Append(TextRun(text, rpr))
	}
}

// NewParagraph builds a paragraph with an optional style id and text.
func NewParagraph(styleID, text string) *ooxml.Element {
	p := ooxml.El(TagP)
	if styleID != "" {
		p.Append(ooxml.El(TagPPr, ooxml.El(TagPStyle).With(AttrVal, styleID)))
	}
	if text != "" {
		p.Append(TextRun(text, nil))
	}
	return p
}

// AppendToBody adds elements at the end of the body, keeping the final
// section properties (w:sectPr) last.
func AppendToBody(body *ooxml.Element, els ...ooxml.Node) {
	children := body.Elements()
	if n := len(children); n > 0 && children[n-1].Name == TagSectPr {
		body.InsertBefore(children[n-1], els...)
		return
	}
	body.Append(els...)
}
