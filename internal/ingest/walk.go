package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExclude skips Word lock files and hidden entries.
var DefaultExclude = []string{"~$", "."}

// File is a collected client document.
type File struct {
	RelPath string // relative to the walked root, forward slashes
	AbsPath string
	Size    int64
	SHA256  string // lowercase hex of the file contents
}

// WalkOptions filter CollectDocx.
type WalkOptions struct {
	// Exclude lists base-name prefixes of files and directories to skip.
	// nil means DefaultExclude; an empty non-nil slice skips nothing.
	Exclude []string
	// MaxFileBytes skips larger files; 0 means no limit.
	MaxFileBytes int64
	// FollowSymlinks descends into symlinked files.
	FollowSymlinks bool
}

func (o WalkOptions) exclude() []string {
	if o.Exclude == nil {
		return DefaultExclude
	}
	return o.Exclude
}

type walkState struct {
	opt   WalkOptions
	root  string
	files []File
}

// CollectDocx walks dir and returns its .docx files sorted by relative path.
// Unreadable entries are skipped; a missing root is an error.
func CollectDocx(dir string, opt WalkOptions) ([]File, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", dir)
	}
	ws := &walkState{opt: opt, root: root}
	if err := filepath.WalkDir(root, ws.visit); err != nil {
		return nil, err
	}
	sort.Slice(ws.files, func(i, j int) bool { return ws.files[i].RelPath < ws.files[j].RelPath })
	return ws.files, nil
}

func (ws *walkState) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return nil
	}
	if path == ws.root {
		return nil
	}
	if hasPrefix(d.Name(), ws.opt.exclude()) {
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if d.IsDir() {
		return nil
	}
	return ws.handleFile(path, d)
}

func (ws *walkState) handleFile(path string, d fs.DirEntry) error {
	if !strings.EqualFold(filepath.Ext(path), ".docx") {
		return nil
	}
	if d.Type()&fs.ModeSymlink != 0 && !ws.opt.FollowSymlinks {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if ws.opt.MaxFileBytes > 0 && info.Size() > ws.opt.MaxFileBytes {
		return nil
	}
	sum, err := sha256File(path)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(ws.root, path)
	if err != nil {
		return nil
	}
	ws.files = append(ws.files, File{
		RelPath: filepath.ToSlash(rel),
		AbsPath: path,
		Size:    info.Size(),
		SHA256:  sum,
	})
	return nil
}

func hasPrefix(base string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
