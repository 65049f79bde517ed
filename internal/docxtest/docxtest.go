// Package docxtest builds small in-memory word-processing packages for tests.
package docxtest

import (
	"fmt"
	"strings"

	"cirdoc/internal/container"
)

// Para describes one fixture paragraph: an optional style id and the text of
// each run.
type Para struct {
	Style string
	Runs  []string
}

// H is a heading paragraph with the given style id and text.
func H(style, text string) Para { return Para{Style: style, Runs: []string{text}} }

// P is a body paragraph made of runs.
func P(runs ...string) Para { return Para{Runs: runs} }

var esc = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

// DocumentXML renders a main document part with a trailing w:sectPr.
func DocumentXML(paras ...Para) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document ` + wNS + `><w:body>`)
	for _, p := range paras {
		b.WriteString(ParagraphXML(p))
	}
	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`)
	return []byte(b.String())
}

// ParagraphXML renders one paragraph. Runs get a bold property so tests can
// check that formatting survives edits.
func ParagraphXML(p Para) string {
	var b strings.Builder
	b.WriteString(`<w:p>`)
	if p.Style != "" {
		fmt.Fprintf(&b, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, esc.Replace(p.Style))
	}
	for _, r := range p.Runs {
		space := ""
		if r != strings.TrimSpace(r) {
			space = ` xml:space="preserve"`
		}
		fmt.Fprintf(&b, `<w:r><w:rPr><w:b/></w:rPr><w:t%s>%s</w:t></w:r>`, space, esc.Replace(r))
	}
	b.WriteString(`</w:p>`)
	return b.String()
}

// StylesXML declares Normal, Heading1..3, Title and a custom "Titre 1".
func StylesXML() []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles ` + wNS + `>` +
		`<w:style w:type="paragraph" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Titre10"><w:name w:val="Titre 1 client"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Corps"><w:name w:val="Body Text"/></w:style>` +
		`</w:styles>`)
}

// FootnotesXML renders a footnotes part with the two separators and one
// plain note per id.
func FootnotesXML(ids ...int) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:footnotes ` + wNS + `>`)
	b.WriteString(`<w:footnote w:type="separator" w:id="0"><w:p><w:r><w:separator/></w:r></w:p></w:footnote>`)
	b.WriteString(`<w:footnote w:type="continuationSeparator" w:id="1"><w:p><w:r><w:continuationSeparator/></w:r></w:p></w:footnote>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<w:footnote w:id="%d"><w:p><w:r><w:t>note %d</w:t></w:r></w:p></w:footnote>`, id, id)
	}
	b.WriteString(`</w:footnotes>`)
	return []byte(b.String())
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

// Package returns a minimal valid package whose body holds paras.
func Package(paras ...Para) *container.Package {
	return container.FromParts(map[string][]byte{
		container.PartContentTypes: []byte(contentTypes),
		container.PartPackageRels:  []byte(packageRels),
		container.PartDocument:     DocumentXML(paras...),
		container.PartDocumentRels: []byte(documentRels),
		container.PartStyles:       StylesXML(),
	})
}

// Bytes serializes a package, panicking on error.
func Bytes(p *container.Package) []byte {
	b, err := p.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}
