// Package branding personalizes a template before its sections are filled.
//
// In the main document and in every header and footer part it replaces the
// CLIENT and 20XX placeholders, puts the client logo in place of every
// paragraph holding LOGO, then rewrites each footer with the dossier's two
// standard lines. It must run before the section patch: it edits parts the
// patch never looks at.
package branding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cirdoc/internal/container"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

// Placeholder tokens recognized in templates.
const (
	TokenClient = "CLIENT"
	TokenYear   = "20XX"
	TokenLogo   = "LOGO"
)

var (
	// ErrNoClient is returned when Options has no client name.
	ErrNoClient = errors.New("branding: client name is required")
	// ErrNoYear is returned when Options has no year.
	ErrNoYear = errors.New("branding: year is required")
)

// Options configure a branding pass.
type Options struct {
	Client string
	Year   int
	// Logo holds the image bytes; nil leaves LOGO paragraphs alone.
	Logo []byte
	// LogoExt is the image extension ("png", "jpeg", "gif"). When empty it is
	// sniffed from Logo.
	LogoExt string
	// LogoWidthEMU is the displayed logo width (default 2 inches).
	LogoWidthEMU int64
	// KeepFooters skips the footer rewrite.
	KeepFooters bool
}

// Result counts the paragraphs changed per placeholder.
type Result struct {
	Skipped bool     `json:"skipped,omitempty"`
	Client  int      `json:"client"`
	Year    int      `json:"year"`
	Logo    int      `json:"logo"`
	Footers int      `json:"footers"`
	Parts   []string `json:"parts,omitempty"` // parts that were rewritten
}

// Lines returns the two footer lines for a client and year.
func Lines(client string, year int) (top, bottom string) {
	y := strconv.Itoa(year)
	return client + " – CIR " + y, "Mémoire CIR " + y
}

type part struct {
	name   string
	doc    *ooxml.Document
	footer bool
}

// Apply brands pkg in place. A package without a main document is skipped.
func Apply(pkg *container.Package, opt Options) (Result, error) {
	if strings.TrimSpace(opt.Client) == "" {
		return Result{}, ErrNoClient
	}
	if opt.Year <= 0 {
		return Result{}, ErrNoYear
	}
	if !pkg.Has(container.PartDocument) {
		return Result{Skipped: true}, nil
	}
	parts, err := loadParts(pkg)
	if err != nil {
		return Result{}, err
	}

	var logo *image
	if len(opt.Logo) > 0 {
		if logo, err = newImage(opt.Logo, opt.LogoExt, opt.LogoWidthEMU); err != nil {
			return Result{}, err
		}
	}

	var res Result
	year := strconv.Itoa(opt.Year)
	for _, p := range parts {
		paras := wordml.AllParagraphs(p.doc.Root)
		res.Client += replaceAll(paras, TokenClient, opt.Client)
		if logo != nil {
			n, err := placeLogo(pkg, p, paras, logo)
			if err != nil {
				return Result{}, err
			}
			res.Logo += n
		}
		res.Year += replaceAll(paras, TokenYear, year)
		if p.footer && !opt.KeepFooters {
			rewriteFooter(p.doc.Root, opt.Client, opt.Year)
			res.Footers++
		}
	}

	if logo != nil && res.Logo > 0 {
		pkg.Set(logo.partName(), logo.data)
		container.RepairManifest(pkg)
		ct, _ := pkg.Part(container.PartContentTypes)
		pkg.Set(container.PartContentTypes, container.EnsureDefault(ct, logo.ext, logo.contentType))
	}
	for _, p := range parts {
		pkg.Set(p.name, p.doc.Bytes())
		res.Parts = append(res.Parts, p.name)
	}
	return res, nil
}

// loadParts parses the main document and the header and footer parts it
// references, in relationship order.
func loadParts(pkg *container.Package) ([]*part, error) {
	var out []*part
	add := func(name string, footer bool) error {
		data, ok := pkg.Part(name)
		if !ok {
			return nil
		}
		doc, err := ooxml.Parse(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		out = append(out, &part{name: name, doc: doc, footer: footer})
		return nil
	}
	if err := add(container.PartDocument, false); err != nil {
		return nil, err
	}
	rels, ok := pkg.Part(container.PartDocumentRels)
	if !ok {
		return out, nil
	}
	list, err := container.ParseRelationships(rels)
	if err != nil {
		return out, nil // a broken rels part links no header or footer
	}
	seen := map[string]bool{}
	for _, r := range list {
		if r.TargetMode == "External" || (r.Type != container.RelTypeHeader && r.Type != container.RelTypeFooter) {
			continue
		}
		name := container.ResolveTarget(container.PartDocument, r.Target)
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := add(name, r.Type == container.RelTypeFooter); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// replaceAll replaces target in each paragraph and returns how many
// paragraphs changed.
func replaceAll(paras []*ooxml.Element, target, repl string) int {
	n := 0
	for _, p := range paras {
		if replaceInParagraph(p, target, repl) {
			n++
		}
	}
	return n
}

// replaceInParagraph replaces target inside individual w:t fragments so
// run formatting survives. When the token is split across runs the whole
// paragraph text is rewritten instead, keeping the first run's formatting.
func replaceInParagraph(p *ooxml.Element, target, repl string) bool {
	done := false
	for _, r := range wordml.Runs(p) {
		for _, t := range r.ChildrenNamed(wordml.TagT) {
			if s := t.Text(); strings.Contains(s, target) {
				wordml.SetFragment(t, strings.ReplaceAll(s, target, repl))
				done = true
			}
		}
	}
	if done {
		return true
	}
	if text := wordml.Text(p); strings.Contains(text, target) {
		wordml.SetText(p, strings.ReplaceAll(text, target, repl))
		return true
	}
	return false
}
