package report

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DiffOptions controls text diff generation.
type DiffOptions struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded, a
	// placeholder is returned and oversize is true. 0 means no limit.
	MaxBytes int
	// Context is the number of context lines in hunks (default 2).
	Context int
}

// TextDiff produces a unified diff of two paragraph lists, one paragraph per
// line. It returns "" when both sides are equal.
func TextDiff(aName, bName string, before, after []string, opt DiffOptions) (body string, oversize bool) {
	a, b := joinLines(before), joinLines(after)
	if a == b {
		return "", false
	}
	if opt.MaxBytes > 0 && len(a)+len(b) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 2
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		return omitted(aName, bName), false
	}
	return s, false
}

// joinLines renders paragraphs one per line. Line breaks inside a
// paragraph are shown as "⏎" so each paragraph stays on one diff line.
func joinLines(paras []string) string {
	var sb strings.Builder
	for _, p := range paras {
		sb.WriteString(strings.ReplaceAll(p, "\n", "⏎"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// splitLinesKeepNL splits into lines and keeps newline characters, which
// produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}

func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}
