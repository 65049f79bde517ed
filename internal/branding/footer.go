package branding

import (
	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

// rewriteFooter replaces the content of a footer part with a bold,
// left-aligned "client – CIR year" line over a centered "Mémoire CIR year".
func rewriteFooter(ftr *ooxml.Element, client string, year int) {
	top, bottom := Lines(client, year)
	ftr.Clear()
	ftr.Append(
		ooxml.El(wordml.TagP,
			ooxml.El(wordml.TagPPr, justify("left")),
			wordml.TextRun(top, ooxml.El(wordml.TagRPr, ooxml.El(ooxml.W("b")))),
		),
		ooxml.El(wordml.TagP,
			ooxml.El(wordml.TagPPr, justify("center")),
			wordml.TextRun(bottom, nil),
		),
	)
}

func justify(val string) *ooxml.Element {
	return ooxml.El(ooxml.W("jc")).With(wordml.AttrVal, val)
}

// center sets the paragraph alignment, keeping its other properties.
func center(p *ooxml.Element) {
	ppr := p.Child(wordml.TagPPr)
	if ppr == nil {
		ppr = ooxml.El(wordml.TagPPr)
		p.Insert(0, ppr)
	}
	if jc := ppr.Child(ooxml.W("jc")); jc != nil {
		jc.SetAttr(wordml.AttrVal, "center")
		return
	}
	for _, c := range ppr.Elements() {
		if c.Name == wordml.TagRPr || c.Name == wordml.TagSectPr || c.Name == ooxml.W("pPrChange") {
			ppr.InsertBefore(c, justify("center"))
			return
		}
	}
	ppr.Append(justify("center"))
}
