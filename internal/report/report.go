// Package report records what a dossier run did: a JSON summary with an
// inventory of the output parts, and a unified diff of the main document
// text before and after.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cirdoc/internal/branding"
	"cirdoc/internal/container"
	"cirdoc/internal/footnotes"
	"cirdoc/internal/sections"
)

// PartInfo describes one part of the output package.
type PartInfo struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	SHA256 string `json:"sha256"`
}

// Report is the JSON run summary.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Template   string           `json:"template"`
	Output     string           `json:"output"`
	Branding   *branding.Result `json:"branding,omitempty"`
	Sections   sections.Result  `json:"sections"`
	Footnotes  []footnotes.Note `json:"footnotes"`
	Existing   []string         `json:"existing_terms,omitempty"`
	Missing    []string         `json:"missing_terms,omitempty"`
	Issues     []string         `json:"issues,omitempty"`
	Parts      []PartInfo       `json:"parts"`
	Changed    []string         `json:"changed_parts,omitempty"`
	Diff       string           `json:"diff,omitempty"` // path of the text diff, when written
}

// New starts a report with a fresh run id.
func New(template, output string, started time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		Template:  template,
		Output:    output,
	}
}

// Inventory lists the parts of pkg in sorted order with their sizes and
// sha256 digests.
func Inventory(pkg *container.Package) []PartInfo {
	names := pkg.SortedNames()
	out := make([]PartInfo, 0, len(names))
	for _, n := range names {
		b, _ := pkg.Part(n)
		sum := sha256.Sum256(b)
		out = append(out, PartInfo{Name: n, Size: len(b), SHA256: hex.EncodeToString(sum[:])})
	}
	return out
}

// Changed returns the names of parts whose content differs between two
// inventories, plus parts present on one side only.
func Changed(before, after []PartInfo) []string {
	prev := make(map[string]string, len(before))
	for _, p := range before {
		prev[p.Name] = p.SHA256
	}
	var out []string
	seen := map[string]bool{}
	for _, p := range after {
		seen[p.Name] = true
		if h, ok := prev[p.Name]; !ok || h != p.SHA256 {
			out = append(out, p.Name)
		}
	}
	for _, p := range before {
		if !seen[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

// Marshal renders the report as indented JSON with a trailing newline.
func (r *Report) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(b, '\n'), nil
}

// Save writes the report to path atomically.
func (r *Report) Save(path string) error {
	b, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := container.WriteFileAtomic(path, b); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
