// Package pipeline runs a full dossier build: brand the template, patch the
// generated sections in, save, reopen the saved file, place the glossary
// footnotes, save again, then validate and report.
//
// Each stage works on the in-memory package; the output file is written only
// after a stage has fully succeeded. Cancellation is checked between stages.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cirdoc/internal/branding"
	"cirdoc/internal/config"
	"cirdoc/internal/container"
	"cirdoc/internal/diag"
	"cirdoc/internal/footnotes"
	"cirdoc/internal/glossary"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/report"
	"cirdoc/internal/sections"
	"cirdoc/internal/textutil"
	"cirdoc/internal/validate"
	"cirdoc/internal/wordml"
)

// DiffMaxBytes bounds the text diff written next to the report.
const DiffMaxBytes = 2_000_000

// Result summarizes a build.
type Result struct {
	Output    string
	Branding  *branding.Result
	Sections  sections.Result
	Footnotes footnotes.Result
	Issues    []string
	Report    *report.Report
}

// Run executes job. Validation issues do not fail the run; they are logged
// and returned in Result.Issues.
func Run(ctx context.Context, job *config.Job, log *slog.Logger) (Result, error) {
	if log == nil {
		log = diag.Discard()
	}
	if err := job.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{Output: job.Output}
	rep := report.New(job.Template, job.Output, time.Now())
	log = log.With("run_id", rep.RunID)

	pkg, err := container.Load(job.Template)
	if err != nil {
		return res, err
	}
	before := bodyTexts(pkg)
	inventory := report.Inventory(pkg)

	if job.Branding != nil {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		done := diag.Stage(log, "brand")
		b, err := Brand(pkg, job.Branding)
		done(err, "client", b.Client, "year", b.Year, "logo", b.Logo, "footers", b.Footers)
		if err != nil {
			return res, err
		}
		res.Branding = &b
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	done := diag.Stage(log, "patch")
	res.Sections, err = patch(pkg, job)
	if err == nil {
		err = container.Save(job.Output, pkg)
	}
	done(err, "replaced", len(res.Sections.Replaced), "inserted", len(res.Sections.Inserted), "appended", len(res.Sections.Appended))
	if err != nil {
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	done = diag.Stage(log, "footnotes")
	pkg, res.Footnotes, err = annotateFile(job)
	done(err, "added", res.Footnotes.Added(), "existing", len(res.Footnotes.Existing), "missing", len(res.Footnotes.Missing))
	if err != nil {
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	done = diag.Stage(log, "report")
	res.Issues = validate.Issues(pkg)
	for _, issue := range res.Issues {
		log.Warn("validation issue", "issue", issue)
	}
	err = writeReport(rep, job, &res, pkg, before, inventory)
	done(err, "issues", len(res.Issues))
	if err != nil {
		return res, err
	}
	res.Report = rep
	return res, nil
}

// Brand builds branding options from the job settings, reading the logo
// file when one is named, and applies them to pkg.
func Brand(pkg *container.Package, b *config.Branding) (branding.Result, error) {
	opt := branding.Options{Client: b.Client, Year: b.Year, KeepFooters: b.KeepFooters}
	if b.Logo != "" {
		data, err := os.ReadFile(b.Logo)
		if err != nil {
			return branding.Result{}, fmt.Errorf("read logo: %w", err)
		}
		opt.Logo = data
	}
	return branding.Apply(pkg, opt)
}

// Annotate prepares the term list against the document text and runs the
// footnote pass on pkg.
func Annotate(pkg *container.Package, entries []glossary.Entry, pol glossary.Policy) (footnotes.Result, error) {
	text, err := footnotes.DocumentText(pkg)
	if err != nil {
		return footnotes.Result{}, err
	}
	return footnotes.Apply(pkg, glossary.Prepare(entries, text, pol))
}

func patch(pkg *container.Package, job *config.Job) (sections.Result, error) {
	secs, err := job.ResolveSections()
	if err != nil {
		return sections.Result{}, err
	}
	return sections.PatchPackage(pkg, secs, job.Level())
}

// annotateFile reopens the saved output so footnotes are placed on exactly
// what was written, then saves again when notes were added.
func annotateFile(job *config.Job) (*container.Package, footnotes.Result, error) {
	pkg, err := container.Load(job.Output)
	if err != nil {
		return nil, footnotes.Result{}, fmt.Errorf("reopen output: %w", err)
	}
	entries, err := job.ResolveTerms()
	if err != nil {
		return nil, footnotes.Result{}, err
	}
	fres, err := Annotate(pkg, entries, job.Policy())
	if err != nil {
		return nil, fres, err
	}
	if fres.Added() > 0 {
		if err := container.Save(job.Output, pkg); err != nil {
			return nil, fres, err
		}
	}
	return pkg, fres, nil
}

func writeReport(rep *report.Report, job *config.Job, res *Result, pkg *container.Package, before []string, inventory []report.PartInfo) error {
	rep.Branding = res.Branding
	rep.Sections = res.Sections
	rep.Footnotes = res.Footnotes.Notes
	rep.Existing = res.Footnotes.Existing
	rep.Missing = res.Footnotes.Missing
	rep.Issues = res.Issues
	rep.Parts = report.Inventory(pkg)
	rep.Changed = report.Changed(inventory, rep.Parts)

	if job.Diff != "" {
		body, _ := report.TextDiff(job.Template, job.Output, before, bodyTexts(pkg), report.DiffOptions{MaxBytes: DiffMaxBytes})
		if err := container.WriteFileAtomic(job.Diff, textutil.EnsureTrailingLF([]byte(body))); err != nil {
			return fmt.Errorf("write diff %s: %w", job.Diff, err)
		}
		rep.Diff = job.Diff
	}
	rep.FinishedAt = time.Now().UTC()
	if job.Report == "" {
		return nil
	}
	return rep.Save(job.Report)
}

// bodyTexts returns the body paragraph texts of pkg, or nil when the main
// document is missing or unreadable.
func bodyTexts(pkg *container.Package) []string {
	data, ok := pkg.Part(container.PartDocument)
	if !ok {
		return nil
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		return nil
	}
	body, err := wordml.Body(doc)
	if err != nil {
		return nil
	}
	return wordml.Texts(body)
}
