package container

import (
	"path"
	"strconv"
	"strings"

	"cirdoc/internal/ooxml"
)

// Relationship types used by the document passes.
const (
	RelTypeFootnotes = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footnotes"
	RelTypeImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeHeader    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	RelTypeFooter    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	RelTypeStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

// Relationship is one entry of a relationships part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string // "External" for URLs; "" for internal parts
}

func relName(local string) ooxml.Name { return ooxml.N(ooxml.NSPkgRel, local) }

// RelsPartFor returns the relationships part name of a source part
// ("word/document.xml" → "word/_rels/document.xml.rels").
func RelsPartFor(part string) string {
	part = SanitizeName(part)
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// ResolveTarget resolves an internal relationship target against its source
// part, returning a package part name.
func ResolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return SanitizeName(target)
	}
	return SanitizeName(path.Join(path.Dir(SanitizeName(sourcePart)), target))
}

func parseRels(data []byte) *ooxml.Document {
	if len(data) > 0 {
		if doc, err := ooxml.Parse(data); err == nil && doc.Root.Name == relName("Relationships") {
			return doc
		}
	}
	return ooxml.NewDocument(ooxml.El(relName("Relationships")))
}

// ParseRelationships lists the entries of a relationships part.
func ParseRelationships(data []byte) ([]Relationship, error) {
	doc, err := ooxml.Parse(data)
	if err != nil {
		return nil, err
	}
	var out []Relationship
	for _, r := range doc.Root.ChildrenNamed(relName("Relationship")) {
		out = append(out, Relationship{
			ID:         r.AttrOr(ooxml.N("", "Id"), ""),
			Type:       r.AttrOr(ooxml.N("", "Type"), ""),
			Target:     r.AttrOr(ooxml.N("", "Target"), ""),
			TargetMode: r.AttrOr(ooxml.N("", "TargetMode"), ""),
		})
	}
	return out, nil
}

// EnsureRelationshipType adds a relationship of relType pointing at target
// unless one of that type already exists. It returns the part bytes and the
// id of the (existing or new) relationship.
func EnsureRelationshipType(rels []byte, relType, target string) ([]byte, string) {
	doc := parseRels(rels)
	for _, r := range doc.Root.ChildrenNamed(relName("Relationship")) {
		if r.AttrOr(ooxml.N("", "Type"), "") == relType {
			return doc.Bytes(), r.AttrOr(ooxml.N("", "Id"), "")
		}
	}
	id := appendRel(doc, relType, target)
	return doc.Bytes(), id
}

// EnsureRelationship adds a relationship unless one with the same type and
// target already exists.
func EnsureRelationship(rels []byte, relType, target string) ([]byte, string) {
	doc := parseRels(rels)
	for _, r := range doc.Root.ChildrenNamed(relName("Relationship")) {
		if r.AttrOr(ooxml.N("", "Type"), "") == relType && r.AttrOr(ooxml.N("", "Target"), "") == target {
			return doc.Bytes(), r.AttrOr(ooxml.N("", "Id"), "")
		}
	}
	id := appendRel(doc, relType, target)
	return doc.Bytes(), id
}

// CountRelationships returns how many entries of relType a part declares.
func CountRelationships(rels []byte, relType string) int {
	list, err := ParseRelationships(rels)
	if err != nil {
		return 0
	}
	n := 0
	for _, r := range list {
		if r.Type == relType {
			n++
		}
	}
	return n
}

// appendRel adds an entry with an id past the maximum numeric "rIdN" suffix.
func appendRel(doc *ooxml.Document, relType, target string) string {
	maxID := 0
	for _, r := range doc.Root.ChildrenNamed(relName("Relationship")) {
		rid := r.AttrOr(ooxml.N("", "Id"), "")
		if !strings.HasPrefix(rid, "rId") {
			continue
		}
		if n, err := strconv.Atoi(rid[3:]); err == nil && n > maxID {
			maxID = n
		}
	}
	id := "rId" + strconv.Itoa(maxID+1)
	doc.Root.Append(ooxml.El(relName("Relationship")).
		With(ooxml.N("", "Id"), id).
		With(ooxml.N("", "Type"), relType).
		With(ooxml.N("", "Target"), target))
	return id
}
