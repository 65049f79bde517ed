package ooxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrNoRoot is returned by Parse when the input holds no root element.
var ErrNoRoot = errors.New("ooxml: no root element")

// Declaration is the XML declaration written when a document has none.
const Declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

// Document is a parsed XML part.
type Document struct {
	Prolog []Node // processing instructions and comments before the root
	Root   *Element
}

// NewDocument wraps a root element. The root gets the conventional
// declaration for its own namespace.
func NewDocument(root *Element) *Document {
	if root.Name.Space != "" && len(root.NS) == 0 {
		root.Declare(PreferredPrefix(root.Name.Space), root.Name.Space)
		root.Prefix = PreferredPrefix(root.Name.Space)
	}
	return &Document{Root: root}
}

// Parse reads an XML part into a tree, resolving every prefix to its URI.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	doc := &Document{}
	var stack []*Element
	scopes := []map[string]string{{"xml": NSXML}}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			scope := scopes[len(scopes)-1]
			el := &Element{Prefix: t.Name.Space}
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					el.NS = append(el.NS, NSDecl{Prefix: a.Name.Local, URI: a.Value})
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					el.NS = append(el.NS, NSDecl{Prefix: "", URI: a.Value})
				}
			}
			if len(el.NS) > 0 {
				next := make(map[string]string, len(scope)+len(el.NS))
				for k, v := range scope {
					next[k] = v
				}
				for _, d := range el.NS {
					next[d.Prefix] = d.URI
				}
				scope = next
			}
			uri, ok := scope[t.Name.Space]
			if !ok && t.Name.Space != "" {
				return nil, fmt.Errorf("parse xml: unbound prefix %q on <%s>", t.Name.Space, t.Name.Local)
			}
			el.Name = Name{Space: uri, Local: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				name := Name{Local: a.Name.Local}
				if a.Name.Space != "" {
					au, ok := scope[a.Name.Space]
					if !ok {
						return nil, fmt.Errorf("parse xml: unbound prefix %q on attribute %s", a.Name.Space, a.Name.Local)
					}
					name.Space = au
				}
				el.Attrs = append(el.Attrs, Attr{Name: name, Value: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fmt.Errorf("parse xml: multiple root elements")
				}
				doc.Root = el
			} else {
				stack[len(stack)-1].Append(el)
			}
			stack = append(stack, el)
			scopes = append(scopes, scope)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml: unexpected </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue // whitespace around the root
			}
			parent := stack[len(stack)-1]
			if n := len(parent.Children); n > 0 {
				if prev, ok := parent.Children[n-1].(*Text); ok {
					prev.Data += string(t)
					continue
				}
			}
			parent.Children = append(parent.Children, &Text{Data: string(t)})
		case xml.Comment:
			raw := &Raw{Data: []byte("<!--" + string(t) + "-->")}
			appendRaw(doc, stack, raw)
		case xml.ProcInst:
			raw := &Raw{Data: []byte("<?" + t.Target + " " + string(t.Inst) + "?>")}
			appendRaw(doc, stack, raw)
		case xml.Directive:
			raw := &Raw{Data: []byte("<!" + string(t) + ">")}
			appendRaw(doc, stack, raw)
		}
	}
	if doc.Root == nil {
		return nil, ErrNoRoot
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("parse xml: unclosed <%s>", stack[len(stack)-1].Name.Local)
	}
	return doc, nil
}

func appendRaw(doc *Document, stack []*Element, raw *Raw) {
	if len(stack) == 0 {
		if doc.Root == nil {
			doc.Prolog = append(doc.Prolog, raw)
		}
		return
	}
	parent := stack[len(stack)-1]
	parent.Children = append(parent.Children, raw)
}

// Bytes serializes the document. A declaration is always emitted first.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	hasDecl := false
	for _, n := range d.Prolog {
		if r, ok := n.(*Raw); ok && bytes.HasPrefix(r.Data, []byte("<?xml ")) {
			hasDecl = true
		}
	}
	if !hasDecl {
		buf.WriteString(Declaration)
		buf.WriteString("\r\n")
	}
	for _, n := range d.Prolog {
		if r, ok := n.(*Raw); ok {
			buf.Write(r.Data)
			if bytes.HasPrefix(r.Data, []byte("<?xml ")) {
				buf.WriteString("\r\n")
			}
		}
	}
	if d.Root != nil {
		w := &writer{buf: &buf}
		w.element(d.Root, map[string]string{"xml": NSXML})
	}
	return buf.Bytes()
}

type writer struct {
	buf *bytes.Buffer
}

func (w *writer) element(e *Element, scope map[string]string) {
	decls := append([]NSDecl(nil), e.NS...)
	if len(decls) > 0 {
		scope = extend(scope, decls...)
	}

	elemPrefix, extra := pickPrefix(scope, e.Name.Space, e.Prefix, true)
	if extra != nil {
		decls = append(decls, *extra)
		scope = extend(scope, *extra)
	}
	if e.Name.Space == "" && scope[""] != "" {
		// unqualified element under a default namespace
		decls = append(decls, NSDecl{Prefix: "", URI: ""})
		scope = extend(scope, NSDecl{Prefix: "", URI: ""})
	}

	attrNames := make([]string, len(e.Attrs))
	for i, a := range e.Attrs {
		switch a.Name.Space {
		case "":
			attrNames[i] = a.Name.Local
		case NSXML:
			attrNames[i] = "xml:" + a.Name.Local
		default:
			p, extra := pickPrefix(scope, a.Name.Space, "", false)
			if extra != nil {
				decls = append(decls, *extra)
				scope = extend(scope, *extra)
			}
			attrNames[i] = p + ":" + a.Name.Local
		}
	}

	qname := qualify(elemPrefix, e.Name.Local)
	w.buf.WriteByte('<')
	w.buf.WriteString(qname)
	for _, d := range decls {
		if d.Prefix == "" {
			w.buf.WriteString(` xmlns="`)
		} else {
			w.buf.WriteString(` xmlns:` + d.Prefix + `="`)
		}
		escapeAttr(w.buf, d.URI)
		w.buf.WriteByte('"')
	}
	for i, a := range e.Attrs {
		w.buf.WriteByte(' ')
		w.buf.WriteString(attrNames[i])
		w.buf.WriteString(`="`)
		escapeAttr(w.buf, a.Value)
		w.buf.WriteByte('"')
	}
	if len(e.Children) == 0 {
		w.buf.WriteString("/>")
		return
	}
	w.buf.WriteByte('>')
	for _, c := range e.Children {
		switch n := c.(type) {
		case *Element:
			w.element(n, scope)
		case *Text:
			escapeText(w.buf, n.Data)
		case *Raw:
			w.buf.Write(n.Data)
		}
	}
	w.buf.WriteString("</")
	w.buf.WriteString(qname)
	w.buf.WriteByte('>')
}

// pickPrefix finds a prefix bound to uri in scope, or proposes a declaration.
// Attributes never use the default namespace.
func pickPrefix(scope map[string]string, uri, hint string, allowDefault bool) (string, *NSDecl) {
	if uri == "" {
		return "", nil
	}
	if v, ok := scope[hint]; ok && v == uri && (hint != "" || allowDefault) {
		return hint, nil
	}
	if p := PreferredPrefix(uri); p != "" && scope[p] == uri {
		return p, nil
	}
	var bound []string
	for p, v := range scope {
		if v == uri && (p != "" || allowDefault) {
			bound = append(bound, p)
		}
	}
	if len(bound) > 0 {
		sort.Strings(bound)
		return bound[0], nil
	}
	candidates := []string{hint, PreferredPrefix(uri)}
	for _, c := range candidates {
		if c == "" || c == "xml" {
			continue
		}
		if _, taken := scope[c]; !taken {
			return c, &NSDecl{Prefix: c, URI: uri}
		}
	}
	for n := 0; ; n++ {
		c := "ns" + strconv.Itoa(n)
		if _, taken := scope[c]; !taken {
			return c, &NSDecl{Prefix: c, URI: uri}
		}
	}
}

func extend(scope map[string]string, decls ...NSDecl) map[string]string {
	next := make(map[string]string, len(scope)+len(decls))
	for k, v := range scope {
		next[k] = v
	}
	for _, d := range decls {
		next[d.Prefix] = d.URI
	}
	return next
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

func escapeText(buf *bytes.Buffer, s string) { _, _ = textEscaper.WriteString(buf, s) }
func escapeAttr(buf *bytes.Buffer, s string) { _, _ = attrEscaper.WriteString(buf, s) }
