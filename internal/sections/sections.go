// Package sections rewrites the content between template headings.
//
// For each requested section the first heading whose normalized text equals
// the section title gets its span (the paragraphs up to the next heading)
// replaced by the section content. Titles that match no heading are appended
// at the end of the body as a heading paragraph followed by a content
// paragraph.
//
// Edits are planned against the original paragraph sequence and applied from
// the last span backward, so no planned position moves before it is used.
package sections

import (
	"fmt"

	"cirdoc/internal/container"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/titles"
	"cirdoc/internal/wordml"
)

// DefaultHeadingLevel is the level of appended section headings.
const DefaultHeadingLevel = 2

// Section is one generated section: the title as it should appear and its
// plain-text body. Newlines in Content become line breaks in one paragraph.
type Section struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// Options control a patch pass.
type Options struct {
	// HeadingLevel of appended headings (1-9, default 2).
	HeadingLevel int
	// Styles resolves paragraph style ids to names. Nil treats ids as names.
	Styles *wordml.Styles
}

// Result reports what a pass did, by section title.
type Result struct {
	Skipped  bool     `json:"skipped,omitempty"` // no main document part
	Replaced []string `json:"replaced,omitempty"`
	Inserted []string `json:"inserted,omitempty"` // heading had an empty span
	Appended []string `json:"appended,omitempty"` // no matching heading
}

// Total returns how many sections were written.
func (r Result) Total() int { return len(r.Replaced) + len(r.Inserted) + len(r.Appended) }

type pending struct {
	title    string
	content  string
	consumed bool
}

type edit struct {
	heading *ooxml.Element
	span    []*ooxml.Element
	content string
}

// Patch applies sections to a document body in place.
func Patch(body *ooxml.Element, secs []Section, opt Options) Result {
	var res Result
	keys, table := plan(secs)
	if len(keys) == 0 {
		return res
	}

	paras := wordml.BodyParagraphs(body)
	var edits []edit
	for i := 0; i < len(paras); i++ {
		p := paras[i]
		if !opt.Styles.IsHeading(p) {
			continue
		}
		pe, ok := table[titles.Normalize(wordml.Text(p))]
		if !ok || pe.consumed {
			continue
		}
		pe.consumed = true
		j := i + 1
		for j < len(paras) && !opt.Styles.IsHeading(paras[j]) {
			j++
		}
		edits = append(edits, edit{heading: p, span: paras[i+1 : j], content: pe.content})
		if len(paras[i+1:j]) == 0 {
			res.Inserted = append(res.Inserted, pe.title)
		} else {
			res.Replaced = append(res.Replaced, pe.title)
		}
	}

	for k := len(edits) - 1; k >= 0; k-- {
		e := edits[k]
		if len(e.span) == 0 {
			body.InsertAfter(e.heading, wordml.NewParagraph("", e.content))
			continue
		}
		for d := len(e.span) - 1; d >= 1; d-- {
			body.Remove(e.span[d])
		}
		wordml.SetText(e.span[0], e.content)
	}

	level := opt.HeadingLevel
	if level <= 0 {
		level = DefaultHeadingLevel
	}
	style := opt.Styles.HeadingStyleID(level)
	for _, key := range keys {
		pe := table[key]
		if pe.consumed {
			continue
		}
		wordml.AppendToBody(body,
			wordml.NewParagraph(style, pe.title),
			wordml.NewParagraph("", pe.content),
		)
		res.Appended = append(res.Appended, pe.title)
	}
	return res
}

// plan keys sections by normalized title in first-seen order. A later
// section with the same key replaces the earlier content.
func plan(secs []Section) ([]string, map[string]*pending) {
	var keys []string
	table := make(map[string]*pending, len(secs))
	for _, s := range secs {
		key := titles.Normalize(s.Title)
		if key == "" {
			continue
		}
		if pe, ok := table[key]; ok {
			pe.content = s.Content
			continue
		}
		keys = append(keys, key)
		table[key] = &pending{title: s.Title, content: s.Content}
	}
	return keys, table
}

// PatchPackage patches the main document part of pkg. A package without a
// main document is reported as skipped, not as an error.
func PatchPackage(pkg *container.Package, secs []Section, level int) (Result, error) {
	data, ok := pkg.Part(container.PartDocument)
	if !ok {
		return Result{Skipped: true}, nil
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", container.PartDocument, err)
	}
	body, err := wordml.Body(doc)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", container.PartDocument, err)
	}
	var styles *wordml.Styles
	if raw, ok := pkg.Part(container.PartStyles); ok {
		if styles, err = wordml.ParseStyles(raw); err != nil {
			return Result{}, fmt.Errorf("parse %s: %w", container.PartStyles, err)
		}
	}
	res := Patch(body, secs, Options{HeadingLevel: level, Styles: styles})
	pkg.Set(container.PartDocument, doc.Bytes())
	return res, nil
}
