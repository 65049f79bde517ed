// Package validate checks that a word-processing package is internally
// consistent after the document passes have run. It is not a schema
// validator; it checks the cross-part invariants Word refuses to open
// without.
//
// Goals:
//   - Aggregate every issue into a single error for better UX
//   - Deterministic order of reported issues
//   - Check relationships, manifest entries and footnote references together
package validate

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"cirdoc/internal/container"
	"cirdoc/internal/footnotes"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

// ErrInvalid wraps every aggregated validation failure.
var ErrInvalid = errors.New("invalid package")

// Package validates pkg:
//
//   - The main document, package relationships and manifest parts exist.
//   - The manifest parses, and every part has a content type (an override
//     or an extension default). The main document has a main-document type.
//   - Every internal target of the main document relationships exists.
//   - When a footnotes part exists, the document declares exactly one
//     footnotes relationship and the manifest exactly one footnotes override
//     with the footnotes content type.
//   - Every w:footnoteReference in the body has a matching note.
//
// It returns nil when the package is consistent, or one error listing all
// issues found.
func Package(pkg *container.Package) error {
	var errs errlist
	check(pkg, &errs)
	return errs.err()
}

// Issues returns the individual problems Package would report.
func Issues(pkg *container.Package) []string {
	var errs errlist
	check(pkg, &errs)
	return errs.msgs
}

func check(pkg *container.Package, errs *errlist) {
	for _, name := range []string{container.PartDocument, container.PartPackageRels, container.PartContentTypes} {
		if !pkg.Has(name) {
			errs.add("%s: part missing", name)
		}
	}

	if raw, ok := pkg.Part(container.PartContentTypes); ok {
		checkManifest(pkg, raw, errs)
	}
	if raw, ok := pkg.Part(container.PartDocumentRels); ok {
		checkDocumentRels(pkg, raw, errs)
	}
	checkFootnotes(pkg, errs)
}

func checkManifest(pkg *container.Package, raw []byte, errs *errlist) {
	m, err := container.ParseManifest(raw)
	if err != nil {
		errs.add("%s: %v", container.PartContentTypes, err)
		return
	}
	for _, name := range pkg.SortedNames() {
		if name == container.PartContentTypes {
			continue
		}
		if _, ok := m.TypeOf(name); !ok {
			errs.add("%s: no content type declared", name)
		}
	}
	if !pkg.Has(container.PartDocument) {
		return
	}
	if ct, _ := m.TypeOf(container.PartDocument); !slices.Contains(container.MainDocumentTypes, ct) {
		errs.add("%s: main document has content type %q", container.PartContentTypes, ct)
	}
}

func checkDocumentRels(pkg *container.Package, raw []byte, errs *errlist) {
	list, err := container.ParseRelationships(raw)
	if err != nil {
		errs.add("%s: %v", container.PartDocumentRels, err)
		return
	}
	ids := map[string]bool{}
	for _, r := range list {
		if ids[r.ID] {
			errs.add("%s: duplicate relationship id %q", container.PartDocumentRels, r.ID)
		}
		ids[r.ID] = true
		if r.TargetMode == "External" {
			continue
		}
		target := container.ResolveTarget(container.PartDocument, r.Target)
		if !pkg.Has(target) {
			errs.add("%s: relationship %s targets missing part %s", container.PartDocumentRels, r.ID, target)
		}
	}
}

func checkFootnotes(pkg *container.Package, errs *errlist) {
	fns, hasNotes := pkg.Part(container.PartFootnotes)
	noteIDs := map[int]bool{}
	if hasNotes {
		rels, _ := pkg.Part(container.PartDocumentRels)
		if n := container.CountRelationships(rels, container.RelTypeFootnotes); n != 1 {
			errs.add("%s: want exactly one footnotes relationship, found %d", container.PartDocumentRels, n)
		}
		ct, _ := pkg.Part(container.PartContentTypes)
		if n := container.CountOverrides(ct, container.PartFootnotes); n != 1 {
			errs.add("%s: want exactly one footnotes override, found %d", container.PartContentTypes, n)
		} else if m, err := container.ParseManifest(ct); err == nil {
			if got, _ := m.TypeOf(container.PartFootnotes); got != container.ContentTypeFootnotes {
				errs.add("%s: footnotes override has content type %q", container.PartContentTypes, got)
			}
		}
		notes, err := footnotes.ReadNotes(fns)
		if err != nil {
			errs.add("%v", err)
		}
		for _, n := range notes {
			if noteIDs[n.ID] {
				errs.add("%s: duplicate footnote id %d", container.PartFootnotes, n.ID)
			}
			noteIDs[n.ID] = true
		}
	}

	data, ok := pkg.Part(container.PartDocument)
	if !ok {
		return
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		errs.add("%s: %v", container.PartDocument, err)
		return
	}
	for _, ref := range doc.Root.Descendants(wordml.TagFootnoteReference) {
		raw := ref.AttrOr(wordml.AttrID, "")
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			errs.add("%s: footnote reference with bad id %q", container.PartDocument, raw)
			continue
		}
		if !noteIDs[id] {
			errs.add("%s: footnote reference %d has no note", container.PartDocument, id)
		}
	}
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n%s", ErrInvalid, strings.Join(e.msgs, "\n"))
}
