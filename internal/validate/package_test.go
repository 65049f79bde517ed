package validate

import (
	"errors"
	"strings"
	"testing"

	"cirdoc/internal/container"
	"cirdoc/internal/docxtest"
	"cirdoc/internal/footnotes"
	"cirdoc/internal/glossary"
)

func TestFixturePackageIsValid(t *testing.T) {
	if err := Package(docxtest.Package(docxtest.P("texte"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidAfterFootnotePass(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("Un RAG."))
	if _, err := footnotes.Apply(pkg, []glossary.Entry{{Term: "RAG", Definition: "x."}}); err != nil {
		t.Fatal(err)
	}
	if err := Package(pkg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAggregatesIssues(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("x"))
	pkg.Delete(container.PartStyles)
	pkg.Set("word/media/blob.bin", []byte{1})
	pkg.Set(container.PartDocument, []byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:footnoteReference w:id="4"/></w:r></w:p></w:body></w:document>`))
	pkg.Set(container.PartFootnotes, docxtest.FootnotesXML(2))

	err := Package(pkg)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
	issues := Issues(pkg)
	wants := []string{
		"word/media/blob.bin: no content type declared",
		"targets missing part word/styles.xml",
		"want exactly one footnotes relationship, found 0",
		"want exactly one footnotes override, found 0",
		"footnote reference 4 has no note",
	}
	all := strings.Join(issues, "\n")
	for _, w := range wants {
		if !strings.Contains(all, w) {
			t.Errorf("missing issue %q in:\n%s", w, all)
		}
	}
}

func TestMainDocumentContentType(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("x"))
	pkg.Set(container.PartContentTypes, []byte(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
		`<Default Extension="xml" ContentType="application/xml"/></Types>`))
	issues := Issues(pkg)
	if len(issues) != 1 || !strings.Contains(issues[0], `main document has content type "application/xml"`) {
		t.Fatalf("issues = %q", issues)
	}

	pkg.Set(container.PartContentTypes, []byte("<Types"))
	container.RepairManifest(pkg)
	if err := Package(pkg); err != nil {
		t.Fatalf("repaired package: %v", err)
	}
}

func TestMissingRequiredParts(t *testing.T) {
	issues := Issues(container.New())
	if len(issues) != 3 {
		t.Fatalf("issues = %q", issues)
	}
}
