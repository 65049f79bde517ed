package wordml

import (
	"strconv"
	"strings"

	"cirdoc/internal/ooxml"
)

// Styles maps style ids to style names, as declared in word/styles.xml.
// The zero value (no style sheet) falls back to treating ids as names.
type Styles struct {
	names map[string]string // id → name
	ids   map[string]string // lower-case name → id
}

// ParseStyles reads a styles part. Empty input yields an empty sheet.
func ParseStyles(data []byte) (*Styles, error) {
	s := &Styles{names: map[string]string{}, ids: map[string]string{}}
	if len(data) == 0 {
		return s, nil
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return nil, err
	}
	for _, st := range doc.Root.ChildrenNamed(ooxml.W("style")) {
		id := st.AttrOr(ooxml.W("styleId"), "")
		if id == "" {
			continue
		}
		name := id
		if n := st.Child(ooxml.W("name")); n != nil {
			name = n.AttrOr(AttrVal, id)
		}
		s.names[id] = name
		if _, dup := s.ids[strings.ToLower(name)]; !dup {
			s.ids[strings.ToLower(name)] = id
		}
	}
	return s, nil
}

// Name returns the display name of a style id, or the id itself when unknown.
func (s *Styles) Name(id string) string {
	if s != nil {
		if n, ok := s.names[id]; ok {
			return n
		}
	}
	return id
}

// Has reports whether the sheet declares the style id.
func (s *Styles) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[id]
	return ok
}

// IDByName returns the id of the style with the given name (case-insensitive).
func (s *Styles) IDByName(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	id, ok := s.ids[strings.ToLower(name)]
	return id, ok
}

// headingPrefixes are the lower-case style-name prefixes of structural headings.
var headingPrefixes = []string{"heading", "titre", "title"}

// IsHeading reports whether a paragraph's declared style follows the
// heading/title naming convention ("Heading 1", "heading 2", "Titre 1", "Title").
func (s *Styles) IsHeading(p *ooxml.Element) bool {
	id := StyleID(p)
	if id == "" {
		return false
	}
	return isHeadingName(s.Name(id)) || isHeadingName(id)
}

func isHeadingName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, pfx := range headingPrefixes {
		if strings.HasPrefix(n, pfx) {
			return true
		}
	}
	return false
}

// HeadingStyleID returns the style id for a heading level: the style named
// "heading N" when the sheet has one, otherwise "HeadingN".
func (s *Styles) HeadingStyleID(level int) string {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	n := strconv.Itoa(level)
	if id, ok := s.IDByName("heading " + n); ok {
		return id
	}
	if id, ok := s.IDByName("titre " + n); ok {
		return id
	}
	return "Heading" + n
}
