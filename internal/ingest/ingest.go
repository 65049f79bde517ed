// Package ingest turns client documents into plain text and word windows
// for the retrieval and generation collaborators.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cirdoc/internal/container"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/textutil"
	"cirdoc/internal/wordml"
)

// Default chunk window, in words.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ErrWindow is returned for a chunk size that does not exceed the overlap.
var ErrWindow = errors.New("ingest: chunk size must exceed overlap")

// ExtractText returns the text of a .docx file: its body paragraphs joined
// by "\n". Files with another extension yield "".
func ExtractText(path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".docx") {
		return "", nil
	}
	pkg, err := container.Load(path)
	if err != nil {
		return "", err
	}
	return PackageText(pkg)
}

// PackageText returns the body paragraph text of a loaded package.
func PackageText(pkg *container.Package) (string, error) {
	data, ok := pkg.Part(container.PartDocument)
	if !ok {
		return "", nil
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", container.PartDocument, err)
	}
	body, err := wordml.Body(doc)
	if err != nil {
		return "", err
	}
	text := strings.Join(wordml.Texts(body), "\n")
	return string(textutil.NormalizeUTF8LF([]byte(text))), nil
}

// Chunk splits text into windows of size words, each starting
// size-overlap words after the previous one.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || size <= overlap {
		return nil, fmt.Errorf("%w (size=%d overlap=%d)", ErrWindow, size, overlap)
	}
	words := strings.Fields(text)
	var out []string
	for i := 0; i < len(words); i += size - overlap {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out, nil
}

// Document is the extracted text of one client file.
type Document struct {
	Path   string   `json:"path"`
	Size   int64    `json:"size"`
	SHA256 string   `json:"sha256"`
	Chunks []string `json:"chunks"`
}

// ChunkDir extracts and chunks every .docx file under dir.
func ChunkDir(dir string, size, overlap int, opt WalkOptions) ([]Document, error) {
	if size <= 0 || overlap < 0 || size <= overlap {
		return nil, fmt.Errorf("%w (size=%d overlap=%d)", ErrWindow, size, overlap)
	}
	files, err := CollectDocx(dir, opt)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(files))
	for _, f := range files {
		text, err := ExtractText(f.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.RelPath, err)
		}
		chunks, err := Chunk(text, size, overlap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Path: f.RelPath, Size: f.Size, SHA256: f.SHA256, Chunks: chunks})
	}
	return docs, nil
}
