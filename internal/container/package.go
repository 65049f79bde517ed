// Package container loads and saves word-processing packages: ZIP archives of
// named parts (path → bytes).
//
// A package is read fully into memory; callers replace whole parts and the
// archive is rebuilt from scratch on save. Untouched parts are copied through
// byte-for-byte, in their original order.
//
// Goals:
//   - Deterministic output (fixed timestamps, stable entry order)
//   - Atomic saves: the archive is assembled in memory, written to a temp
//     file in the destination directory, then renamed over the target
//   - Safe part names (no absolute paths, no traversal)
package container

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Well-known part names.
const (
	PartContentTypes = "[Content_Types].xml"
	PartPackageRels  = "_rels/.rels"
	PartDocument     = "word/document.xml"
	PartDocumentRels = "word/_rels/document.xml.rels"
	PartFootnotes    = "word/footnotes.xml"
	PartStyles       = "word/styles.xml"
)

var (
	// ErrNotZip is returned when the input is not a ZIP archive.
	ErrNotZip = errors.New("container: not a zip archive")
	// ErrPartMissing marks a part that a caller required but the package lacks.
	ErrPartMissing = errors.New("container: part missing")
)

// Package is an in-memory word-processing package.
type Package struct {
	order []string
	parts map[string][]byte
}

// New returns an empty package.
func New() *Package {
	return &Package{parts: make(map[string][]byte)}
}

// Open reads a package from archive bytes.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotZip, err)
	}
	p := New()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		p.Set(f.Name, b)
	}
	return p, nil
}

// Load reads the package stored at path.
func Load(path string) (*Package, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Open(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Part returns the bytes of a part. The boolean is false when the part is
// absent; absence is a normal condition (e.g. no footnotes yet).
func (p *Package) Part(name string) ([]byte, bool) {
	b, ok := p.parts[SanitizeName(name)]
	return b, ok
}

// Has reports whether the package has the part.
func (p *Package) Has(name string) bool {
	_, ok := p.parts[SanitizeName(name)]
	return ok
}

// Set adds or replaces a part. New parts are appended after existing ones.
func (p *Package) Set(name string, data []byte) {
	name = SanitizeName(name)
	if name == "" {
		return
	}
	if _, ok := p.parts[name]; !ok {
		p.order = append(p.order, name)
	}
	p.parts[name] = data
}

// Delete removes a part if present.
func (p *Package) Delete(name string) {
	name = SanitizeName(name)
	if _, ok := p.parts[name]; !ok {
		return
	}
	delete(p.parts, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Names returns part names in package order.
func (p *Package) Names() []string {
	return append([]string(nil), p.order...)
}

// SortedNames returns part names sorted lexicographically.
func (p *Package) SortedNames() []string {
	out := p.Names()
	sort.Strings(out)
	return out
}

// FromParts builds a package from a name → bytes map. Entry order is the
// sorted name order.
func FromParts(parts map[string][]byte) *Package {
	names := make([]string, 0, len(parts))
	for n := range parts {
		names = append(names, n)
	}
	sort.Strings(names)
	p := New()
	for _, n := range names {
		p.Set(n, parts[n])
	}
	return p
}

// Clone returns an independent copy of the package.
func (p *Package) Clone() *Package {
	c := New()
	for _, n := range p.order {
		c.Set(n, append([]byte(nil), p.parts[n]...))
	}
	return c
}

// Bytes serializes the package into a fresh archive holding exactly its
// parts, each compressed. The content-type manifest is written first.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := p.Names()
	if ct, ok := p.parts[PartContentTypes]; ok {
		if err := writeEntry(zw, PartContentTypes, ct); err != nil {
			return nil, err
		}
	}
	for _, n := range names {
		if n == PartContentTypes {
			continue
		}
		if err := writeEntry(zw, n, p.parts[n]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the package to path. The destination is fully replaced;
// readers never observe a partially-written file.
func Save(path string, p *Package) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temporary file within the same directory,
// then renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
