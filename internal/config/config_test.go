package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const sampleJob = `
template: tpl/modele.docx
output: out/dossier.docx
heading_level: 3
sections:
  - title: "1. L'entreprise"
    content: "  Texte A  \n\n"
  - title: Contexte
    file: contexte.txt
terms:
  - term: API
    definition: interface de programmation
terms_file: terms.yaml
branding:
  client: ACME
  year: 2024
  logo: logo.png
report: out/report.json
`

func TestLoadResolvesPathsAgainstJobDir(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "job.yaml", sampleJob)

	job, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "tpl", "modele.docx"); job.Template != want {
		t.Fatalf("template = %q, want %q", job.Template, want)
	}
	if want := filepath.Join(dir, "contexte.txt"); job.Sections[1].File != want {
		t.Fatalf("section file = %q, want %q", job.Sections[1].File, want)
	}
	if want := filepath.Join(dir, "logo.png"); job.Branding.Logo != want {
		t.Fatalf("logo = %q, want %q", job.Branding.Logo, want)
	}
	if job.Level() != 3 {
		t.Fatalf("level = %d", job.Level())
	}
	if err := job.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("template: a.docx\ntemplat: b.docx\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	job, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if job.Level() != 2 {
		t.Fatalf("default level = %d", job.Level())
	}
}

func TestValidateAggregates(t *testing.T) {
	job := &Job{
		Template:     "same.docx",
		Output:       "same.docx",
		HeadingLevel: 12,
		MaxTerms:     -1,
		Sections:     []Section{{Title: " "}, {Title: "B", Content: "x", File: "y"}},
		Branding:     &Branding{Year: 24},
	}
	err := job.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	for _, want := range []string{
		"output must differ", "heading_level 12", "max_terms", "sections[0]",
		"content and file are exclusive", "branding.client", "branding.year 24",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in:\n%v", want, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:          "debug",
		EnvHeadingLevel:      "1",
		EnvDefaultDefinition: "sigle",
		EnvMaxTerms:          "10",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	job := &Job{HeadingLevel: 3, LogLevel: "info"}
	if err := job.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if job.LogLevel != "debug" || job.HeadingLevel != 1 || job.DefaultDefinition != "sigle" || job.MaxTerms != 10 {
		t.Fatalf("overrides not applied: %+v", job)
	}
	pol := job.Policy()
	if pol.MaxTerms != 10 || pol.DefaultDefinition != "sigle" {
		t.Fatalf("policy = %+v", pol)
	}

	env[EnvHeadingLevel] = "deux"
	if err := job.ApplyEnv(lookup); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid for bad number, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, ".env", "CIRDOC_TEST_FROM_DOTENV=yes\nCIRDOC_TEST_PRESET=file\n")
	t.Setenv("CIRDOC_TEST_PRESET", "process")
	t.Setenv("CIRDOC_TEST_FROM_DOTENV", "")
	os.Unsetenv("CIRDOC_TEST_FROM_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("CIRDOC_TEST_FROM_DOTENV"); got != "yes" {
		t.Fatalf("dotenv value = %q", got)
	}
	if got := os.Getenv("CIRDOC_TEST_PRESET"); got != "process" {
		t.Fatalf("process env must win, got %q", got)
	}
}

func TestResolveSections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "contexte.txt", "Ligne 1  \r\n\r\n\r\nLigne 2\r\n")
	writeFile(t, dir, "terms.yaml", "- term: CIR\n  definition: crédit d'impôt recherche\n")
	p := writeFile(t, dir, "job.yaml", sampleJob+`articles:
  - title: Deep parsing
    year: "2021"
    authors: Doe
    url: https://example.org/a
    selected: true
`)
	job, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	secs, err := job.ResolveSections()
	if err != nil {
		t.Fatalf("ResolveSections: %v", err)
	}
	if len(secs) != 3 {
		t.Fatalf("got %d sections", len(secs))
	}
	if secs[0].Content != "Texte A" {
		t.Fatalf("inline content = %q", secs[0].Content)
	}
	if secs[1].Content != "Ligne 1\nLigne 2" {
		t.Fatalf("file content = %q", secs[1].Content)
	}
	if secs[2].Title != DefaultStateOfTheArtTitle || !strings.HasPrefix(secs[2].Content, "- Deep parsing (2021)") {
		t.Fatalf("state of the art = %+v", secs[2])
	}

	terms, err := job.ResolveTerms()
	if err != nil {
		t.Fatalf("ResolveTerms: %v", err)
	}
	if len(terms) != 2 || terms[0].Term != "API" || terms[1].Term != "CIR" {
		t.Fatalf("terms = %+v", terms)
	}
}

func TestResolveSectionsMissingFile(t *testing.T) {
	job := &Job{Sections: []Section{{Title: "A", File: filepath.Join(t.TempDir(), "nope.txt")}}}
	if _, err := job.ResolveSections(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestLoadSections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "Depuis un fichier\n")
	list := writeFile(t, dir, "list.yaml", "- title: A\n  content: texte a\n- title: B\n  file: b.txt\n")
	secs, err := LoadSections(list)
	if err != nil {
		t.Fatalf("list form: %v", err)
	}
	if len(secs) != 2 || secs[1].Content != "Depuis un fichier" {
		t.Fatalf("list form = %+v", secs)
	}

	mapping := writeFile(t, dir, "map.yaml", "Zeta: dernier\nAlpha: premier\n")
	secs, err = LoadSections(mapping)
	if err != nil {
		t.Fatalf("mapping form: %v", err)
	}
	if len(secs) != 2 || secs[0].Title != "Zeta" || secs[1].Title != "Alpha" {
		t.Fatalf("mapping order lost: %+v", secs)
	}

	bad := writeFile(t, dir, "bad.yaml", "A:\n  - nested\n")
	if _, err := LoadSections(bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}
