package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cirdoc/internal/config"
	"cirdoc/internal/container"
	"cirdoc/internal/diag"
	"cirdoc/internal/docxtest"
	"cirdoc/internal/footnotes"
	"cirdoc/internal/glossary"
	"cirdoc/internal/validate"
)

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	pkg := docxtest.Package(
		docxtest.H("Heading1", "Mémoire CLIENT"),
		docxtest.H("Heading1", "1. L'entreprise"),
		docxtest.P("ancien texte"),
		docxtest.P("encore"),
		docxtest.H("Heading1", "Contexte"),
		docxtest.P("Le CIR finance la R&D via une API ouverte."),
	)
	p := filepath.Join(dir, "modele.docx")
	if err := container.Save(p, pkg); err != nil {
		t.Fatal(err)
	}
	return p
}

func testJob(t *testing.T) *config.Job {
	t.Helper()
	dir := t.TempDir()
	return &config.Job{
		Template: writeTemplate(t, dir),
		Output:   filepath.Join(dir, "out", "dossier.docx"),
		Sections: []config.Section{
			{Title: "1. L’entreprise", Content: "Texte A"},
			{Title: "Nouvelle Section", Content: "Contenu"},
		},
		Terms: []glossary.Entry{
			{Term: "API", Definition: "interface de programmation"},
			{Term: "CIR"},
		},
		Branding: &config.Branding{Client: "Acme", Year: 2025},
		Report:   filepath.Join(dir, "out", "report.json"),
		Diff:     filepath.Join(dir, "out", "document.diff"),
	}
}

func TestRun(t *testing.T) {
	job := testJob(t)
	var logs bytes.Buffer
	res, err := Run(context.Background(), job, diag.NewLogger(&logs, slog.LevelInfo))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Branding == nil || res.Branding.Client != 1 {
		t.Fatalf("branding = %+v", res.Branding)
	}
	if len(res.Sections.Replaced) != 1 || len(res.Sections.Appended) != 1 {
		t.Fatalf("sections = %+v", res.Sections)
	}
	if res.Footnotes.Added() != 2 {
		t.Fatalf("footnotes = %+v", res.Footnotes)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("issues = %v", res.Issues)
	}

	out, err := container.Load(job.Output)
	if err != nil {
		t.Fatal(err)
	}
	if err := validate.Package(out); err != nil {
		t.Fatalf("output invalid: %v", err)
	}
	text, err := footnotes.DocumentText(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Mémoire Acme", "Texte A", "Nouvelle Section", "Contenu"} {
		if !strings.Contains(text, want) {
			t.Errorf("output text lacks %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "ancien texte") {
		t.Errorf("old section text survived:\n%s", text)
	}
	notes, _ := out.Part(container.PartFootnotes)
	if !bytes.Contains(notes, []byte("CIR : acronyme technique.")) {
		t.Errorf("default definition missing from notes:\n%s", notes)
	}

	raw, err := os.ReadFile(job.Report)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var rep struct {
		RunID     string   `json:"run_id"`
		Changed   []string `json:"changed_parts"`
		Footnotes []struct {
			ID   int    `json:"id"`
			Term string `json:"term"`
		} `json:"footnotes"`
	}
	if err := json.Unmarshal(raw, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.RunID == "" || len(rep.Footnotes) != 2 {
		t.Fatalf("report = %s", raw)
	}
	if !contains(rep.Changed, container.PartFootnotes) || !contains(rep.Changed, container.PartDocument) {
		t.Fatalf("changed parts = %v", rep.Changed)
	}

	diff, err := os.ReadFile(job.Diff)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !bytes.Contains(diff, []byte("+Texte A")) || !bytes.Contains(diff, []byte("-ancien texte")) {
		t.Fatalf("diff = %s", diff)
	}

	for _, stage := range []string{"stage=brand", "stage=patch", "stage=footnotes", "stage=report"} {
		if !strings.Contains(logs.String(), stage) {
			t.Errorf("no log line for %s:\n%s", stage, logs.String())
		}
	}
}

func TestRunTwiceOnOutputAddsNoNotes(t *testing.T) {
	job := testJob(t)
	if _, err := Run(context.Background(), job, nil); err != nil {
		t.Fatal(err)
	}
	second := *job
	second.Template = job.Output
	second.Output = filepath.Join(filepath.Dir(job.Output), "again.docx")
	second.Branding = nil
	res, err := Run(context.Background(), &second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Footnotes.Added() != 0 || len(res.Footnotes.Existing) != 2 {
		t.Fatalf("second run footnotes = %+v", res.Footnotes)
	}
	if len(res.Sections.Appended) != 0 {
		t.Fatalf("second run appended again: %+v", res.Sections)
	}
}

func TestRunCanceledWritesNothing(t *testing.T) {
	job := testJob(t)
	job.Branding = nil
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, job, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if _, err := os.Stat(job.Output); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output written after cancel: %v", err)
	}
}

func TestRunRejectsInvalidJob(t *testing.T) {
	if _, err := Run(context.Background(), &config.Job{}, nil); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestAnnotateAcronymFallback(t *testing.T) {
	pkg := docxtest.Package(docxtest.P("Le CIR et la JEI."))
	res, err := Annotate(pkg, []glossary.Entry{{Term: "CIR", Definition: "crédit"}}, glossary.Policy{Acronyms: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Added() != 2 {
		t.Fatalf("notes = %+v", res.Notes)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
