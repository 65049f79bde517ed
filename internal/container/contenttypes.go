package container

import (
	"path"
	"strings"

	"cirdoc/internal/ooxml"
)

// Content types used by the document passes.
const (
	ContentTypeDocument      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ContentTypeFootnotes     = "application/vnd.openxmlformats-officedocument.wordprocessingml.footnotes+xml"
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML           = "application/xml"
)

// MainDocumentTypes are the content types Word accepts for the main document
// part: documents and templates, with or without macros.
var MainDocumentTypes = []string{
	ContentTypeDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.template.main+xml",
	"application/vnd.ms-word.document.macroEnabled.main+xml",
	"application/vnd.ms-word.template.macroEnabledTemplate.main+xml",
}

const wml = "application/vnd.openxmlformats-officedocument.wordprocessingml."

// knownParts maps part-name patterns to the override a rebuilt manifest
// declares for them.
var knownParts = []struct {
	pattern     string
	contentType string
}{
	{PartDocument, ContentTypeDocument},
	{PartStyles, wml + "styles+xml"},
	{"word/settings.xml", wml + "settings+xml"},
	{"word/webSettings.xml", wml + "webSettings+xml"},
	{"word/fontTable.xml", wml + "fontTable+xml"},
	{"word/numbering.xml", wml + "numbering+xml"},
	{PartFootnotes, ContentTypeFootnotes},
	{"word/endnotes.xml", wml + "endnotes+xml"},
	{"word/comments.xml", wml + "comments+xml"},
	{"word/header*.xml", wml + "header+xml"},
	{"word/footer*.xml", wml + "footer+xml"},
	{"word/theme/theme*.xml", "application/vnd.openxmlformats-officedocument.theme+xml"},
	{"docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml"},
	{"docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml"},
}

// mediaTypes are the extension defaults a rebuilt manifest declares for
// binary parts.
var mediaTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
	"svg":  "image/svg+xml",
}

func ctName(local string) ooxml.Name { return ooxml.N(ooxml.NSContentTypes, local) }

// PartURI converts a part name to its absolute part URI ("/word/document.xml").
func PartURI(name string) string { return "/" + SanitizeName(name) }

// parseTypes returns the manifest tree, or a fresh one when the input is
// empty or malformed. A fresh manifest carries the rels and xml defaults
// every package needs.
func parseTypes(data []byte) *ooxml.Document {
	if len(data) > 0 {
		if doc, err := ooxml.Parse(data); err == nil && doc.Root.Name == ctName("Types") {
			return doc
		}
	}
	doc := ooxml.NewDocument(ooxml.El(ctName("Types")))
	doc.Root.Append(
		ooxml.El(ctName("Default")).With(ooxml.N("", "Extension"), "rels").
			With(ooxml.N("", "ContentType"), ContentTypeRelationships),
		ooxml.El(ctName("Default")).With(ooxml.N("", "Extension"), "xml").
			With(ooxml.N("", "ContentType"), ContentTypeXML),
	)
	return doc
}

// RepairManifest rebuilds a missing or malformed manifest from the parts
// present in pkg: overrides for the well-known word-processing parts and
// extension defaults for media. A readable manifest is left alone. It
// reports whether the manifest was rebuilt.
func RepairManifest(pkg *Package) bool {
	if raw, ok := pkg.Part(PartContentTypes); ok {
		if doc, err := ooxml.Parse(raw); err == nil && doc.Root.Name == ctName("Types") {
			return false
		}
	}
	doc := parseTypes(nil)
	var overrides []*ooxml.Element
	seen := map[string]bool{"rels": true, "xml": true}
	for _, name := range pkg.SortedNames() {
		if name == PartContentTypes {
			continue
		}
		if ct, ok := knownPartType(name); ok {
			overrides = append(overrides, ooxml.El(ctName("Override")).
				With(ooxml.N("", "PartName"), PartURI(name)).
				With(ooxml.N("", "ContentType"), ct))
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
		if ct, ok := mediaTypes[ext]; ok && !seen[ext] {
			seen[ext] = true
			doc.Root.Append(ooxml.El(ctName("Default")).
				With(ooxml.N("", "Extension"), ext).
				With(ooxml.N("", "ContentType"), ct))
		}
	}
	for _, ov := range overrides {
		doc.Root.Append(ov)
	}
	pkg.Set(PartContentTypes, doc.Bytes())
	return true
}

func knownPartType(name string) (string, bool) {
	for _, k := range knownParts {
		if ok, _ := path.Match(k.pattern, name); ok {
			return k.contentType, true
		}
	}
	return "", false
}

// EnsureOverride upserts an Override entry for partName. Part names compare
// case-insensitively. An existing entry with another content type is corrected.
func EnsureOverride(manifest []byte, partName, contentType string) []byte {
	doc := parseTypes(manifest)
	uri := PartURI(partName)
	for _, ov := range doc.Root.ChildrenNamed(ctName("Override")) {
		if strings.EqualFold(ov.AttrOr(ooxml.N("", "PartName"), ""), uri) {
			if ov.AttrOr(ooxml.N("", "ContentType"), "") != contentType {
				ov.SetAttr(ooxml.N("", "ContentType"), contentType)
			}
			return doc.Bytes()
		}
	}
	doc.Root.Append(ooxml.El(ctName("Override")).
		With(ooxml.N("", "PartName"), uri).
		With(ooxml.N("", "ContentType"), contentType))
	return doc.Bytes()
}

// EnsureDefault upserts a Default entry for a file extension.
func EnsureDefault(manifest []byte, ext, contentType string) []byte {
	doc := parseTypes(manifest)
	ext = strings.TrimPrefix(ext, ".")
	for _, d := range doc.Root.ChildrenNamed(ctName("Default")) {
		if strings.EqualFold(d.AttrOr(ooxml.N("", "Extension"), ""), ext) {
			return doc.Bytes()
		}
	}
	def := ooxml.El(ctName("Default")).
		With(ooxml.N("", "Extension"), strings.ToLower(ext)).
		With(ooxml.N("", "ContentType"), contentType)
	// Defaults conventionally precede overrides.
	if first := doc.Root.Child(ctName("Override")); first != nil {
		doc.Root.InsertBefore(first, def)
	} else {
		doc.Root.Append(def)
	}
	return doc.Bytes()
}

// Manifest is a read-only view of the content-type manifest.
type Manifest struct {
	Defaults  map[string]string // lower-case extension → content type
	Overrides map[string]string // lower-case part URI → content type
}

// ParseManifest reads the manifest. It returns an error for malformed input.
func ParseManifest(data []byte) (Manifest, error) {
	m := Manifest{Defaults: map[string]string{}, Overrides: map[string]string{}}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return m, err
	}
	for _, d := range doc.Root.ChildrenNamed(ctName("Default")) {
		m.Defaults[strings.ToLower(d.AttrOr(ooxml.N("", "Extension"), ""))] = d.AttrOr(ooxml.N("", "ContentType"), "")
	}
	for _, o := range doc.Root.ChildrenNamed(ctName("Override")) {
		m.Overrides[strings.ToLower(o.AttrOr(ooxml.N("", "PartName"), ""))] = o.AttrOr(ooxml.N("", "ContentType"), "")
	}
	return m, nil
}

// TypeOf resolves the content type of a part: override first, then extension default.
func (m Manifest) TypeOf(partName string) (string, bool) {
	if ct, ok := m.Overrides[strings.ToLower(PartURI(partName))]; ok {
		return ct, true
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(partName)), ".")
	ct, ok := m.Defaults[ext]
	return ct, ok
}

// CountOverrides returns how many Override entries name partName.
func CountOverrides(data []byte, partName string) int {
	doc, err := ooxml.Parse(data)
	if err != nil {
		return 0
	}
	n := 0
	uri := PartURI(partName)
	for _, o := range doc.Root.ChildrenNamed(ctName("Override")) {
		if strings.EqualFold(o.AttrOr(ooxml.N("", "PartName"), ""), uri) {
			n++
		}
	}
	return n
}
