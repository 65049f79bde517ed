// Package ooxml implements a small namespace-qualified XML element tree used to
// edit the parts of an Office Open XML package.
//
// Every element and attribute carries its full namespace URI. Prefixes are a
// serialization concern only: the prefix seen while parsing is remembered so
// parts round-trip with their original spelling, and elements created in code
// get a well-known prefix (w, r, wp, a, pic, ...) declared on demand.
//
// Goals:
//   - No implicit namespace handling: names are always {URI, Local}
//   - Faithful round-trip of untouched markup (prefixes, declarations, order)
//   - Minimal API for the tree edits the document passes need
package ooxml

// Namespace URIs used across the package parts.
const (
	NSMain         = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSRel          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSPkgRel       = "http://schemas.openxmlformats.org/package/2006/relationships"
	NSContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"
	NSXML          = "http://www.w3.org/XML/1998/namespace"
	NSXMLNS        = "http://www.w3.org/2000/xmlns/"
	NSWordDrawing  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NSDrawing      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSPicture      = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	NSMarkupCompat = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// wellKnown maps namespace URIs to the prefix Word itself uses for them.
var wellKnown = map[string]string{
	NSMain:         "w",
	NSRel:          "r",
	NSWordDrawing:  "wp",
	NSDrawing:      "a",
	NSPicture:      "pic",
	NSMarkupCompat: "mc",
	NSXML:          "xml",
}

// Name is a fully qualified XML name.
type Name struct {
	Space string // namespace URI, "" for no namespace
	Local string
}

// N builds a Name.
func N(space, local string) Name { return Name{Space: space, Local: local} }

// W returns a name in the WordprocessingML main namespace.
func W(local string) Name { return Name{Space: NSMain, Local: local} }

// R returns a name in the officeDocument relationships namespace.
func R(local string) Name { return Name{Space: NSRel, Local: local} }

// XMLSpace is the xml:space attribute.
var XMLSpace = Name{Space: NSXML, Local: "space"}

// Attr is a single attribute. Namespace declarations are not attributes;
// they live in Element.NS.
type Attr struct {
	Name  Name
	Value string
}

// NSDecl is a namespace declaration (xmlns or xmlns:prefix) carried by an element.
type NSDecl struct {
	Prefix string // "" declares the default namespace
	URI    string
}

// PreferredPrefix returns the conventional prefix for a namespace, or "".
func PreferredPrefix(uri string) string { return wellKnown[uri] }
