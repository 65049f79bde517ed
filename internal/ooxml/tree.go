package ooxml

// Node is one child of an Element: *Element, *Text or *Raw.
type Node interface {
	node()
}

// Text is character data.
type Text struct {
	Data string
}

// Raw is markup kept verbatim (comments, processing instructions, directives).
type Raw struct {
	Data []byte
}

func (*Element) node() {}
func (*Text) node()    {}
func (*Raw) node()     {}

// Element is an XML element with fully qualified name and attributes.
type Element struct {
	Name     Name
	Prefix   string   // prefix seen when parsed; a hint for serialization
	NS       []NSDecl // namespace declarations made on this element
	Attrs    []Attr
	Children []Node
	Parent   *Element
}

// El creates an element with the given children.
func El(name Name, children ...Node) *Element {
	e := &Element{Name: name}
	e.Append(children...)
	return e
}

// With sets an attribute and returns e, for chained construction.
func (e *Element) With(name Name, value string) *Element {
	e.SetAttr(name, value)
	return e
}

// Attr returns the value of an attribute.
func (e *Element) Attr(name Name) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when absent.
func (e *Element) AttrOr(name Name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr creates or replaces an attribute, keeping attribute order stable.
func (e *Element) SetAttr(name Name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name Name) {
	out := e.Attrs[:0]
	for _, a := range e.Attrs {
		if a.Name != name {
			out = append(out, a)
		}
	}
	e.Attrs = out
}

// Declare adds a namespace declaration unless the prefix is already declared here.
func (e *Element) Declare(prefix, uri string) {
	for i := range e.NS {
		if e.NS[i].Prefix == prefix {
			e.NS[i].URI = uri
			return
		}
	}
	e.NS = append(e.NS, NSDecl{Prefix: prefix, URI: uri})
}

// Append adds children at the end.
func (e *Element) Append(children ...Node) {
	for _, c := range children {
		adopt(e, c)
		e.Children = append(e.Children, c)
	}
}

// Insert places children starting at index i of e.Children. Children that
// already have a parent are detached first.
func (e *Element) Insert(i int, children ...Node) {
	for _, c := range children {
		adopt(e, c)
	}
	if i < 0 {
		i = 0
	}
	if i > len(e.Children) {
		i = len(e.Children)
	}
	tail := append([]Node(nil), e.Children[i:]...)
	e.Children = append(append(e.Children[:i], children...), tail...)
}

// InsertAfter places children right after ref (or at the end if ref is not a child).
func (e *Element) InsertAfter(ref Node, children ...Node) {
	i := e.Index(ref)
	if i < 0 {
		e.Append(children...)
		return
	}
	e.Insert(i+1, children...)
}

// InsertBefore places children right before ref (or at the end if ref is not a child).
func (e *Element) InsertBefore(ref Node, children ...Node) {
	i := e.Index(ref)
	if i < 0 {
		e.Append(children...)
		return
	}
	e.Insert(i, children...)
}

// Index returns the position of child in e.Children, or -1.
func (e *Element) Index(child Node) int {
	for i, c := range e.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Remove detaches child from e. It reports whether child was found.
func (e *Element) Remove(child Node) bool {
	i := e.Index(child)
	if i < 0 {
		return false
	}
	e.Children = append(e.Children[:i], e.Children[i+1:]...)
	if el, ok := child.(*Element); ok {
		el.Parent = nil
	}
	return true
}

// Clear removes all children.
func (e *Element) Clear() {
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			el.Parent = nil
		}
	}
	e.Children = nil
}

// Elements returns the element children of e in order.
func (e *Element) Elements() []*Element {
	out := make([]*Element, 0, len(e.Children))
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Child returns the first direct child with the given name, or nil.
func (e *Element) Child(name Name) *Element {
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Name == name {
			return el
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given name.
func (e *Element) ChildrenNamed(name Name) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Name == name {
			out = append(out, el)
		}
	}
	return out
}

// Descendants returns every element below e named name, in document order.
func (e *Element) Descendants(name Name) []*Element {
	var out []*Element
	e.Walk(func(el *Element) bool {
		if el != e && el.Name == name {
			out = append(out, el)
		}
		return true
	})
	return out
}

// Walk visits e and its descendants depth-first in document order.
// Returning false from fn skips the subtree of that element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			el.Walk(fn)
		}
	}
}

// Text returns the concatenated character data of the direct children.
func (e *Element) Text() string {
	var s string
	for _, c := range e.Children {
		if t, ok := c.(*Text); ok {
			s += t.Data
		}
	}
	return s
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(s string) {
	e.Clear()
	if s != "" {
		e.Children = []Node{&Text{Data: s}}
	}
}

// Clone returns a deep copy of e detached from any parent.
func (e *Element) Clone() *Element {
	c := &Element{
		Name:   e.Name,
		Prefix: e.Prefix,
		NS:     append([]NSDecl(nil), e.NS...),
		Attrs:  append([]Attr(nil), e.Attrs...),
	}
	for _, ch := range e.Children {
		switch n := ch.(type) {
		case *Element:
			c.Append(n.Clone())
		case *Text:
			c.Children = append(c.Children, &Text{Data: n.Data})
		case *Raw:
			c.Children = append(c.Children, &Raw{Data: append([]byte(nil), n.Data...)})
		}
	}
	return c
}

func adopt(parent *Element, c Node) {
	if el, ok := c.(*Element); ok {
		if el.Parent != nil {
			el.Parent.Remove(el)
		}
		el.Parent = parent
	}
}
