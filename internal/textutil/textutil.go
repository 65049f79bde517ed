// Package textutil cleans text handed over by collaborators before it is
// written into a document.
package textutil

import (
	"bytes"
	"strings"
)

// NormalizeUTF8LF converts CRLF to LF and ensures the output is valid UTF-8
// by replacing invalid byte sequences with the Unicode replacement character.
func NormalizeUTF8LF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ToValidUTF8(b, []byte("\uFFFD"))
}

// EnsureTrailingLF appends a single \n if not already present.
func EnsureTrailingLF(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}

// SectionText prepares generated section content for a single paragraph:
// newlines normalized, surrounding blank space trimmed, trailing spaces
// dropped from each line and runs of blank lines collapsed, so that every
// remaining "\n" becomes exactly one line break.
func SectionText(b []byte) string {
	s := string(NormalizeUTF8LF(b))
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
