package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cirdoc/internal/branding"
	"cirdoc/internal/config"
	"cirdoc/internal/container"
	"cirdoc/internal/diag"
	"cirdoc/internal/docxtest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func template(t *testing.T, dir string) string {
	t.Helper()
	pkg := docxtest.Package(
		docxtest.H("Heading1", "Dossier CLIENT 20XX"),
		docxtest.H("Heading1", "1. L'entreprise"),
		docxtest.P("à remplacer"),
		docxtest.H("Heading1", "Contexte"),
		docxtest.P("Une API interne."),
	)
	p := filepath.Join(dir, "modele.docx")
	if err := container.Save(p, pkg); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFillFootnotesTextValidate(t *testing.T) {
	dir := t.TempDir()
	tmpl := template(t, dir)
	out := filepath.Join(dir, "dossier.docx")
	secs := write(t, dir, "sections.yaml", "\"1. L'entreprise\": Acme conçoit une API publique.\nAnnexe: Texte annexe\n")
	terms := write(t, dir, "terms.yaml", "terms:\n  - term: API\n    definition: interface de programmation\n")

	stdout, err := run(t, "fill", "--template", tmpl, "--out", out, "--sections", secs)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !strings.Contains(stdout, "replaced=1, inserted=0, appended=1") {
		t.Fatalf("fill output = %q", stdout)
	}

	stdout, err = run(t, "footnotes", "--doc", out, "--terms", terms)
	if err != nil {
		t.Fatalf("footnotes: %v", err)
	}
	if !strings.Contains(stdout, "Added 1 footnote(s)") {
		t.Fatalf("footnotes output = %q", stdout)
	}
	stdout, err = run(t, "footnotes", "--doc", out, "--terms", terms)
	if err != nil || !strings.Contains(stdout, "Added 0 footnote(s)") {
		t.Fatalf("second footnotes pass = %q, %v", stdout, err)
	}

	stdout, err = run(t, "text", "--doc", out)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	// The reference run after "API" splits the fragment.
	if !strings.Contains(stdout, "Acme conçoit une API\n publique.") || !strings.Contains(stdout, "Texte annexe") {
		t.Fatalf("text output = %q", stdout)
	}
	stdout, err = run(t, "text", "--doc", out, "--paragraphs")
	if err != nil || !strings.Contains(stdout, "Acme conçoit une API publique.\n") {
		t.Fatalf("text --paragraphs = %q, %v", stdout, err)
	}

	stdout, err = run(t, "validate", "--doc", out)
	if err != nil || !strings.HasPrefix(stdout, "OK ") {
		t.Fatalf("validate = %q, %v", stdout, err)
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	template(t, dir)
	write(t, dir, "job.yaml", `template: modele.docx
output: out/dossier.docx
report: out/report.json
sections:
  - title: "1. L'entreprise"
    content: Acme utilise une API.
terms:
  - term: API
    definition: interface
branding:
  client: Acme
  year: 2025
`)
	stdout, err := run(t, "build", "-c", filepath.Join(dir, "job.yaml"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(stdout, "Wrote dossier") || !strings.Contains(stdout, "footnotes=1") {
		t.Fatalf("build output = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "report.json")); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	_, err := run(t, "build")
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	if diag.ExitCode(err) != 2 {
		t.Fatalf("exit code = %d", diag.ExitCode(err))
	}
}

func TestBrand(t *testing.T) {
	dir := t.TempDir()
	tmpl := template(t, dir)
	out := filepath.Join(dir, "brand.docx")

	_, err := run(t, "brand", "--template", tmpl, "--out", out, "--year", "2025")
	if !errors.Is(err, branding.ErrNoClient) {
		t.Fatalf("want ErrNoClient, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("output written on error: %v", statErr)
	}

	stdout, err := run(t, "brand", "--template", tmpl, "--out", out, "--client", "Acme", "--year", "2025")
	if err != nil {
		t.Fatalf("brand: %v", err)
	}
	if !strings.Contains(stdout, "client=1, year=1") {
		t.Fatalf("brand output = %q", stdout)
	}
	text, err := run(t, "text", "--doc", out)
	if err != nil || !strings.Contains(text, "Dossier Acme 2025") {
		t.Fatalf("branded text = %q, %v", text, err)
	}
}

func TestValidateRejectsNonZip(t *testing.T) {
	p := write(t, t.TempDir(), "broken.docx", "not a zip")
	_, err := run(t, "validate", "--doc", p)
	if !errors.Is(err, container.ErrNotZip) {
		t.Fatalf("want ErrNotZip, got %v", err)
	}
}

func TestChunk(t *testing.T) {
	dir := t.TempDir()
	words := strings.Repeat("mot ", 25)
	pkg := docxtest.Package(docxtest.P(strings.TrimSpace(words)))
	if err := container.Save(filepath.Join(dir, "client.docx"), pkg); err != nil {
		t.Fatal(err)
	}
	stdout, err := run(t, "chunk", "--dir", dir, "--size", "10", "--overlap", "5")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	var docs []struct {
		Path   string   `json:"path"`
		Chunks []string `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(stdout), &docs); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if len(docs) != 1 || docs[0].Path != "client.docx" || len(docs[0].Chunks) < 4 {
		t.Fatalf("docs = %+v", docs)
	}

	if _, err := run(t, "chunk", "--dir", dir, "--size", "5", "--overlap", "5"); diag.ExitCode(err) != 2 {
		t.Fatalf("bad window exit = %d (%v)", diag.ExitCode(err), err)
	}
}
