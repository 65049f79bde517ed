package textutil

import "testing"

func TestNormalizeUTF8LF(t *testing.T) {
	got := string(NormalizeUTF8LF([]byte("a\r\nb\rc\xff")))
	if got != "a\nb\nc\uFFFD" {
		t.Fatalf("got %q", got)
	}
}

func TestEnsureTrailingLF(t *testing.T) {
	if string(EnsureTrailingLF([]byte("x"))) != "x\n" || string(EnsureTrailingLF([]byte("x\n"))) != "x\n" {
		t.Fatalf("trailing newline not normalized")
	}
}

func TestSectionText(t *testing.T) {
	in := "\r\n  Premier paragraphe.  \r\n\r\n\r\nSecond  \n\n"
	if got := SectionText([]byte(in)); got != "Premier paragraphe.\nSecond" {
		t.Fatalf("got %q", got)
	}
}
