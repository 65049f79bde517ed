// Package footnotes places glossary footnotes in a word-processing package.
//
// The pass finds the first occurrence of each term in the body, inserts a
// superscript footnote reference right after it, then writes the matching
// notes to word/footnotes.xml and makes sure the relationships part and the
// content-type manifest declare that part exactly once.
//
// Goals:
//   - Paragraph text is unchanged by annotation; only reference runs are added
//   - One reference per term, at its first annotatable occurrence
//   - Upserts of the footnotes part, relationship and override are idempotent
//   - Terms that already have a note from an earlier run are not annotated again
package footnotes

import (
	"fmt"
	"strings"

	"cirdoc/internal/container"
	"cirdoc/internal/glossary"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

// Result reports one footnote pass.
type Result struct {
	Skipped  bool             `json:"skipped,omitempty"` // no main document part
	Notes    []Note           `json:"notes,omitempty"`
	Existing []string         `json:"existing,omitempty"` // terms noted by an earlier run
	Missing  []string         `json:"missing,omitempty"`  // terms with no occurrence
	Entries  []glossary.Entry `json:"-"`
}

// Added returns the number of notes written.
func (r Result) Added() int { return len(r.Notes) }

// Apply runs the footnote pass on pkg. Parts are replaced only when at least
// one note is added; a package without a main document is left untouched
// and reported as skipped.
func Apply(pkg *container.Package, entries []glossary.Entry) (Result, error) {
	data, ok := pkg.Part(container.PartDocument)
	if !ok {
		return Result{Skipped: true}, nil
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", container.PartDocument, err)
	}
	if _, err := wordml.Body(doc); err != nil {
		return Result{}, fmt.Errorf("%s: %w", container.PartDocument, err)
	}

	existingPart, _ := pkg.Part(container.PartFootnotes)
	existing, err := ReadNotes(existingPart)
	if err != nil {
		return Result{}, err
	}
	next, err := NextID(existingPart)
	if err != nil {
		return Result{}, err
	}

	var res Result
	defs := make(map[string]string, len(entries))
	var terms []string
	for _, e := range entries {
		if e.Term == "" {
			continue
		}
		if _, dup := defs[e.Term]; dup {
			continue
		}
		defs[e.Term] = e.Definition
		if noted(existing, e.Term) {
			res.Existing = append(res.Existing, e.Term)
			continue
		}
		terms = append(terms, e.Term)
	}

	placed, err := Annotate(doc.Root, terms, next)
	if err != nil {
		return Result{}, err
	}
	ids := make(map[string]int, len(placed))
	for _, pl := range placed {
		ids[pl.Term] = pl.ID
		res.Notes = append(res.Notes, Note{ID: pl.ID, Term: pl.Term, Definition: defs[pl.Term]})
	}
	for _, t := range terms {
		if _, ok := ids[t]; !ok {
			res.Missing = append(res.Missing, t)
		}
	}
	for _, e := range entries {
		e.FootnoteID = ids[e.Term]
		res.Entries = append(res.Entries, e)
	}
	if len(res.Notes) == 0 {
		return res, nil
	}

	fns, err := BuildOrExtend(existingPart, res.Notes)
	if err != nil {
		return Result{}, err
	}
	rels, _ := pkg.Part(container.PartDocumentRels)
	container.RepairManifest(pkg)
	manifest, _ := pkg.Part(container.PartContentTypes)

	updates := map[string][]byte{
		container.PartDocument:     doc.Bytes(),
		container.PartFootnotes:    fns,
		container.PartDocumentRels: EnsureRelationships(rels),
		container.PartContentTypes: EnsureContentTypeOverride(manifest),
	}
	if styles, ok := pkg.Part(container.PartStyles); ok {
		out, err := EnsureFootnoteStyles(styles)
		if err != nil {
			return Result{}, err
		}
		updates[container.PartStyles] = out
	}
	for _, name := range []string{
		container.PartDocument, container.PartFootnotes, container.PartDocumentRels,
		container.PartContentTypes, container.PartStyles,
	} {
		if b, ok := updates[name]; ok {
			pkg.Set(name, b)
		}
	}
	return res, nil
}

// noted reports whether an existing content note starts with "term : ".
func noted(notes []ExistingNote, term string) bool {
	prefix := term + " : "
	for _, n := range notes {
		if n.ID >= FirstNoteID && n.Type == "" && strings.HasPrefix(n.Text, prefix) {
			return true
		}
	}
	return false
}

// DocumentText returns FullText of the package's main document, or "" when
// the package has none.
func DocumentText(pkg *container.Package) (string, error) {
	data, ok := pkg.Part(container.PartDocument)
	if !ok {
		return "", nil
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", container.PartDocument, err)
	}
	return FullText(doc.Root), nil
}

// ParagraphText returns the rendered text of every paragraph of the main
// document, one paragraph per line. Runs split by annotation read as one.
func ParagraphText(pkg *container.Package) (string, error) {
	data, ok := pkg.Part(container.PartDocument)
	if !ok {
		return "", nil
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", container.PartDocument, err)
	}
	ps := wordml.AllParagraphs(doc.Root)
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = wordml.Text(p)
	}
	return strings.Join(lines, "\n"), nil
}
