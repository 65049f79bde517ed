package footnotes

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"cirdoc/internal/container"
	"cirdoc/internal/docxtest"
	"cirdoc/internal/glossary"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

func parseRoot(t *testing.T, data []byte) *ooxml.Element {
	t.Helper()
	doc, err := ooxml.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc.Root
}

func referenceIDs(root *ooxml.Element) []string {
	var ids []string
	for _, r := range root.Descendants(wordml.TagFootnoteReference) {
		ids = append(ids, r.AttrOr(wordml.AttrID, ""))
	}
	return ids
}

func TestFindMatchesPrefersLongest(t *testing.T) {
	got := FindMatches("a neural network model", []string{"network", "neural network"})
	want := []Match{{Start: 2, End: 16, Term: "neural network"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestFindMatchesRightToLeft(t *testing.T) {
	got := FindMatches("RAG puis LLM puis RAG", []string{"RAG", "LLM", ""})
	if len(got) != 2 || got[0].Term != "LLM" || got[1].Term != "RAG" || got[1].Start != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestAnnotateFirstOccurrenceOnly(t *testing.T) {
	root := parseRoot(t, docxtest.DocumentXML(
		docxtest.P("Intro sans terme."),
		docxtest.P("Le RAG ", "est utile."),
		docxtest.P("Encore le RAG."),
		docxtest.P("RAG toujours."),
	))
	placed, err := Annotate(root, []string{"RAG"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(placed, []Placement{{ID: 2, Term: "RAG"}}) {
		t.Fatalf("placed = %+v", placed)
	}
	if ids := referenceIDs(root); !reflect.DeepEqual(ids, []string{"2"}) {
		t.Fatalf("references = %v", ids)
	}
	body := root.Child(wordml.TagBody)
	second := wordml.BodyParagraphs(body)[1]
	runs := wordml.Runs(second)
	if !wordml.IsFootnoteReferenceRun(runs[1]) {
		t.Fatalf("reference should follow the run ending with the term")
	}
}

func TestAnnotatePreservesParagraphText(t *testing.T) {
	paras := []docxtest.Para{
		docxtest.P("un réseau ", "de neurones", " profond et un LLM local"),
		docxtest.P("Le ", "L", "LM ", "encore"),
	}
	root := parseRoot(t, docxtest.DocumentXML(paras...))
	body := root.Child(wordml.TagBody)
	before := wordml.Texts(body)

	placed, err := Annotate(root, []string{"LLM", "réseau de neurones", "profond"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(placed) != 3 {
		t.Fatalf("placed = %+v", placed)
	}
	if after := wordml.Texts(body); !reflect.DeepEqual(before, after) {
		t.Fatalf("text changed:\n%q\n%q", before, after)
	}
	for _, p := range wordml.BodyParagraphs(body) {
		for _, r := range wordml.Runs(p) {
			if wordml.IsFootnoteReferenceRun(r) {
				continue
			}
			if tx := r.Child(wordml.TagT); tx == nil || tx.Text() == "" {
				t.Fatalf("zero-length run left in paragraph")
			}
		}
	}
	// Ids follow term order, not document order.
	want := []Placement{{10, "LLM"}, {11, "réseau de neurones"}, {12, "profond"}}
	if !reflect.DeepEqual(placed, want) {
		t.Fatalf("placed = %+v, want %+v", placed, want)
	}
}

func TestAnnotateShadowedTermWaitsForLaterParagraph(t *testing.T) {
	root := parseRoot(t, docxtest.DocumentXML(
		docxtest.P("a neural network model"),
		docxtest.P("the network alone"),
	))
	if _, err := Annotate(root, []string{"network", "neural network"}, 2); err != nil {
		t.Fatal(err)
	}
	body := root.Child(wordml.TagBody)
	ps := wordml.BodyParagraphs(body)
	if len(ps[0].Descendants(wordml.TagFootnoteReference)) != 1 {
		t.Fatalf("first paragraph should hold exactly one reference")
	}
	refs := ps[1].Descendants(wordml.TagFootnoteReference)
	if len(refs) != 1 || refs[0].AttrOr(wordml.AttrID, "") != "2" {
		t.Fatalf("network should be annotated in the second paragraph with id 2")
	}
}

func TestNextIDContinuesAfterMax(t *testing.T) {
	if id, _ := NextID(nil); id != FirstNoteID {
		t.Fatalf("empty part: %d", id)
	}
	if id, _ := NextID(docxtest.FootnotesXML()); id != 2 {
		t.Fatalf("separators only: %d", id)
	}
	if id, _ := NextID(docxtest.FootnotesXML(2, 5, 3)); id != 6 {
		t.Fatalf("max 5: %d", id)
	}
}

func TestBuildOrExtendSynthesizesSeparators(t *testing.T) {
	out, err := BuildOrExtend(nil, []Note{{ID: 2, Term: "RAG", Definition: "Recherche augmentée."}})
	if err != nil {
		t.Fatal(err)
	}
	notes, err := ReadNotes(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 3 || notes[0].Type != "separator" || notes[1].Type != "continuationSeparator" {
		t.Fatalf("notes = %+v", notes)
	}
	if notes[2].ID != 2 || notes[2].Text != "RAG : Recherche augmentée." {
		t.Fatalf("content note = %+v", notes[2])
	}
	s := string(out)
	for _, want := range []string{`w:val="FootnoteText"`, `w:val="FootnoteReference"`, "<w:footnoteRef/>", "<w:tab/>"} {
		if !strings.Contains(s, want) {
			t.Fatalf("part missing %s:\n%s", want, s)
		}
	}
	again, err := BuildOrExtend(out, []Note{{ID: 2, Term: "RAG", Definition: "Recherche augmentée."}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, again) {
		t.Fatalf("upsert of the same note changed the part")
	}
}

func TestBuildOrExtendRejectsReservedID(t *testing.T) {
	if _, err := BuildOrExtend(nil, []Note{{ID: 1, Term: "x"}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApplyAssignsIDsAfterExisting(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("Le RAG, le LLM et FAISS."))
	pkg.Set(container.PartFootnotes, docxtest.FootnotesXML(2, 5))
	res, err := Apply(pkg, []glossary.Entry{
		{Term: "RAG", Definition: "a."},
		{Term: "LLM", Definition: "b."},
		{Term: "FAISS", Definition: "c."},
	})
	if err != nil {
		t.Fatal(err)
	}
	var ids []int
	for _, n := range res.Notes {
		ids = append(ids, n.ID)
	}
	if !reflect.DeepEqual(ids, []int{6, 7, 8}) {
		t.Fatalf("ids = %v", ids)
	}
	if res.Entries[2].FootnoteID != 8 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	fns, _ := pkg.Part(container.PartFootnotes)
	notes, _ := ReadNotes(fns)
	var all []int
	for _, n := range notes {
		all = append(all, n.ID)
	}
	if !reflect.DeepEqual(all, []int{0, 1, 2, 5, 6, 7, 8}) {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestApplyIsStableAcrossRuns(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("Un LLM et un RAG."), docxtest.P("Le LLM encore."))
	names := pkg.Names()
	entries := []glossary.Entry{{Term: "LLM", Definition: "Grand modèle."}, {Term: "RAG", Definition: "Recherche."}, {Term: "BERT", Definition: "absent."}}

	res, err := Apply(pkg, entries)
	if err != nil {
		t.Fatal(err)
	}
	if res.Added() != 2 || !reflect.DeepEqual(res.Missing, []string{"BERT"}) {
		t.Fatalf("first run: %+v", res)
	}

	// Serialize and reload between runs.
	for run := 0; run < 2; run++ {
		reopened, err := container.Open(docxtest.Bytes(pkg))
		if err != nil {
			t.Fatal(err)
		}
		pkg = reopened
		res, err = Apply(pkg, entries)
		if err != nil {
			t.Fatal(err)
		}
		if res.Added() != 0 || len(res.Existing) != 2 {
			t.Fatalf("re-run %d: %+v", run, res)
		}
	}

	for _, n := range names {
		if !pkg.Has(n) {
			t.Fatalf("part %s lost", n)
		}
	}
	rels, _ := pkg.Part(container.PartDocumentRels)
	manifest, _ := pkg.Part(container.PartContentTypes)
	if n := container.CountRelationships(rels, container.RelTypeFootnotes); n != 1 {
		t.Fatalf("footnote relationships = %d", n)
	}
	if n := container.CountOverrides(manifest, container.PartFootnotes); n != 1 {
		t.Fatalf("footnote overrides = %d", n)
	}
	doc, _ := pkg.Part(container.PartDocument)
	if ids := referenceIDs(parseRoot(t, doc)); !reflect.DeepEqual(ids, []string{"2", "3"}) {
		t.Fatalf("references = %v", ids)
	}
	styles, _ := pkg.Part(container.PartStyles)
	if !bytes.Contains(styles, []byte(`w:styleId="FootnoteText"`)) {
		t.Fatalf("footnote styles not added")
	}
}

func TestApplyRepairsMalformedManifest(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("Un RAG."))
	pkg.Set(container.PartContentTypes, []byte("<Types"))
	if _, err := Apply(pkg, []glossary.Entry{{Term: "RAG", Definition: "x."}}); err != nil {
		t.Fatal(err)
	}
	raw, _ := pkg.Part(container.PartContentTypes)
	m, err := container.ParseManifest(raw)
	if err != nil {
		t.Fatal(err)
	}
	if ct, _ := m.TypeOf(container.PartDocument); ct != container.ContentTypeDocument {
		t.Fatalf("document type = %q", ct)
	}
	if ct, _ := m.TypeOf(container.PartFootnotes); ct != container.ContentTypeFootnotes {
		t.Fatalf("footnotes type = %q", ct)
	}
	if n := container.CountOverrides(raw, container.PartFootnotes); n != 1 {
		t.Fatalf("footnote overrides = %d", n)
	}
}

func TestApplyWithoutDocumentIsNoop(t *testing.T) {
	pkg := container.New()
	res, err := Apply(pkg, []glossary.Entry{{Term: "X", Definition: "y."}})
	if err != nil || !res.Skipped || res.Added() != 0 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if len(pkg.Names()) != 0 {
		t.Fatalf("package modified")
	}
}

func TestApplyNoMatchLeavesPackageUntouched(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("rien"))
	before := docxtest.Bytes(pkg)
	res, err := Apply(pkg, []glossary.Entry{{Term: "RAG", Definition: "x."}})
	if err != nil || res.Added() != 0 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if !bytes.Equal(before, docxtest.Bytes(pkg)) {
		t.Fatalf("package changed without notes")
	}
}

func TestEnsureUpsertsAreIdempotent(t *testing.T) {
	rels := EnsureRelationships(nil)
	if !bytes.Equal(rels, EnsureRelationships(rels)) {
		t.Fatalf("relationships upsert not idempotent")
	}
	ct := EnsureContentTypeOverride(nil)
	if !bytes.Equal(ct, EnsureContentTypeOverride(ct)) {
		t.Fatalf("override upsert not idempotent")
	}
	list, _ := container.ParseRelationships(rels)
	if len(list) != 1 || list[0].Target != FootnotesTarget || list[0].ID != "rId1" {
		t.Fatalf("relationships = %+v", list)
	}
}

func TestFullText(t *testing.T) {
	root := parseRoot(t, docxtest.DocumentXML(docxtest.P("a", "b"), docxtest.P("c")))
	if got := FullText(root); got != "a\nb\nc" {
		t.Fatalf("FullText = %q", got)
	}
}

func TestParagraphTextJoinsSplitRuns(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("Une API publique."), docxtest.P("Fin"))
	if _, err := Apply(pkg, []glossary.Entry{{Term: "API", Definition: "x."}}); err != nil {
		t.Fatal(err)
	}
	full, err := DocumentText(pkg)
	if err != nil {
		t.Fatal(err)
	}
	if full != "Une API\n publique.\nFin" {
		t.Fatalf("DocumentText = %q", full)
	}
	got, err := ParagraphText(pkg)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Une API publique.\nFin" {
		t.Fatalf("ParagraphText = %q", got)
	}
	if got, _ := ParagraphText(container.New()); got != "" {
		t.Fatalf("empty package = %q", got)
	}
}
