package ooxml

import (
	"strings"
	"testing"
)

const sample = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body><w:p><w:r><w:t xml:space="preserve"> a &amp; b </w:t></w:r></w:p><!-- note --></w:body></w:document>`

func TestParseResolvesNamespaces(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Root.Name != W("document") {
		t.Fatalf("root = %+v", doc.Root.Name)
	}
	ts := doc.Root.Descendants(W("t"))
	if len(ts) != 1 {
		t.Fatalf("w:t count = %d", len(ts))
	}
	if got := ts[0].Text(); got != " a & b " {
		t.Fatalf("text = %q", got)
	}
	if v, _ := ts[0].Attr(XMLSpace); v != "preserve" {
		t.Fatalf("xml:space = %q", v)
	}
}

func TestRoundTripKeepsPrefixesAndComments(t *testing.T) {
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	out := string(doc.Bytes())
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`,
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`,
		`<w:t xml:space="preserve"> a &amp; b </w:t>`,
		`<!-- note -->`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	again, err := Parse([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if string(again.Bytes()) != out {
		t.Fatalf("serialization is not stable")
	}
}

func TestBuiltElementsUseBoundPrefix(t *testing.T) {
	doc, _ := Parse([]byte(sample))
	body := doc.Root.Child(W("body"))
	body.Append(El(W("p"), El(W("r"), El(W("footnoteReference")).With(W("id"), "3"))))
	out := string(doc.Bytes())
	if !strings.Contains(out, `<w:p><w:r><w:footnoteReference w:id="3"/></w:r></w:p>`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestUndeclaredNamespaceGetsDeclared(t *testing.T) {
	doc := NewDocument(El(N("urn:x", "root"), El(W("p"))))
	out := string(doc.Bytes())
	if !strings.Contains(out, `<root xmlns="urn:x">`) {
		t.Fatalf("root: %s", out)
	}
	if !strings.Contains(out, `<w:p xmlns:w="`+NSMain+`"/>`) {
		t.Fatalf("child: %s", out)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "<a><b></a>", `<x:a/>`, "<a/><b/>"} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestInsertMovesWithinParent(t *testing.T) {
	a, b, c := El(N("", "a")), El(N("", "b")), El(N("", "c"))
	root := El(N("", "root"), a, b, c)
	root.Insert(0, c)
	names := []string{}
	for _, e := range root.Elements() {
		names = append(names, e.Name.Local)
	}
	if strings.Join(names, "") != "cab" {
		t.Fatalf("order = %v", names)
	}
	if c.Parent != root {
		t.Fatalf("parent not set")
	}
}

func TestCloneIsDeep(t *testing.T) {
	src := El(W("rPr"), El(W("b")))
	cp := src.Clone()
	cp.Append(El(W("i")))
	if len(src.Children) != 1 || cp.Parent != nil {
		t.Fatalf("clone shares state with source")
	}
}
