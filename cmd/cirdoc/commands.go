package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cirdoc/internal/config"
	"cirdoc/internal/container"
	"cirdoc/internal/footnotes"
	"cirdoc/internal/glossary"
	"cirdoc/internal/ingest"
	"cirdoc/internal/pipeline"
	"cirdoc/internal/sections"
	"cirdoc/internal/validate"
)

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", config.ErrInvalid, fmt.Sprintf(format, args...))
}

func buildCmd(a *app) *cobra.Command {
	var (
		jobPath string
		output  string
		report  string
		diff    string
		level   int
	)
	cmd := &cobra.Command{
		Use:   "build -c job.yaml",
		Short: "Run the full pipeline described by a job file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobPath == "" {
				return usageErr("build: -c job.yaml is required")
			}
			job, err := config.Load(jobPath)
			if err != nil {
				return err
			}
			if err := job.ApplyEnv(os.LookupEnv); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("out") {
				job.Output = output
			}
			if flags.Changed("report") {
				job.Report = report
			}
			if flags.Changed("diff") {
				job.Diff = diff
			}
			if flags.Changed("level") {
				job.HeadingLevel = level
			}

			res, err := pipeline.Run(cmd.Context(), job, a.logger(cmd, job.LogLevel))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote dossier %s (sections=%d, appended=%d, footnotes=%d)\n",
				res.Output, res.Sections.Total(), len(res.Sections.Appended), res.Footnotes.Added())
			if len(res.Footnotes.Missing) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Terms not found: %v\n", res.Footnotes.Missing)
			}
			if job.Report != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", job.Report)
			}
			if n := len(res.Issues); n > 0 {
				for _, issue := range res.Issues {
					fmt.Fprintln(cmd.ErrOrStderr(), "  -", issue)
				}
				return fmt.Errorf("%w: %d issue(s) in %s", validate.ErrInvalid, n, res.Output)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&jobPath, "config", "c", "", "job file (YAML)")
	f.StringVar(&output, "out", "", "override the output path")
	f.StringVar(&report, "report", "", "override the report path")
	f.StringVar(&diff, "diff", "", "override the text diff path")
	f.IntVar(&level, "level", 0, "override the heading level of appended sections")
	return cmd
}

func brandCmd(a *app) *cobra.Command {
	var (
		tmpl, out string
		b         config.Branding
	)
	cmd := &cobra.Command{
		Use:   "brand --template T --out O --client C --year Y",
		Short: "Replace CLIENT, 20XX and LOGO placeholders and rewrite footers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tmpl == "" || out == "" {
				return usageErr("brand: --template and --out are required")
			}
			log := a.logger(cmd, "")
			pkg, err := container.Load(tmpl)
			if err != nil {
				return err
			}
			res, err := pipeline.Brand(pkg, &b)
			if err != nil {
				return err
			}
			if err := container.Save(out, pkg); err != nil {
				return err
			}
			log.Debug("branded", "parts", res.Parts)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (client=%d, year=%d, logo=%d, footers=%d)\n",
				out, res.Client, res.Year, res.Logo, res.Footers)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&tmpl, "template", "", "input template (.docx)")
	f.StringVar(&out, "out", "", "output document (.docx)")
	f.StringVar(&b.Client, "client", "", "client name")
	f.IntVar(&b.Year, "year", 0, "dossier year")
	f.StringVar(&b.Logo, "logo", "", "logo image (png, jpeg or gif)")
	f.BoolVar(&b.KeepFooters, "keep-footers", false, "do not rewrite footer parts")
	return cmd
}

func fillCmd(a *app) *cobra.Command {
	var (
		tmpl, out, secPath string
		level              int
	)
	cmd := &cobra.Command{
		Use:   "fill --template T --out O --sections S.yaml",
		Short: "Patch generated sections into a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tmpl == "" || out == "" || secPath == "" {
				return usageErr("fill: --template, --out and --sections are required")
			}
			log := a.logger(cmd, "")
			secs, err := config.LoadSections(secPath)
			if err != nil {
				return err
			}
			pkg, err := container.Load(tmpl)
			if err != nil {
				return err
			}
			res, err := sections.PatchPackage(pkg, secs, level)
			if err != nil {
				return err
			}
			if res.Skipped {
				log.Warn("no main document part; nothing patched", "template", tmpl)
			}
			if err := container.Save(out, pkg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (replaced=%d, inserted=%d, appended=%d)\n",
				out, len(res.Replaced), len(res.Inserted), len(res.Appended))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&tmpl, "template", "", "input template (.docx)")
	f.StringVar(&out, "out", "", "output document (.docx)")
	f.StringVar(&secPath, "sections", "", "sections file (YAML list or title: content mapping)")
	f.IntVar(&level, "level", sections.DefaultHeadingLevel, "heading level of appended sections")
	return cmd
}

func footnotesCmd(a *app) *cobra.Command {
	var (
		docPath, termsPath string
		pol                glossary.Policy
	)
	cmd := &cobra.Command{
		Use:   "footnotes --doc D --terms terms.yaml",
		Short: "Place glossary footnotes in a document, replacing it atomically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if docPath == "" || termsPath == "" {
				return usageErr("footnotes: --doc and --terms are required")
			}
			log := a.logger(cmd, "")
			if v, ok := os.LookupEnv(config.EnvDefaultDefinition); ok && !cmd.Flags().Changed("default-definition") {
				pol.DefaultDefinition = v
			}
			entries, err := glossary.LoadFile(termsPath)
			if err != nil {
				return err
			}
			pkg, err := container.Load(docPath)
			if err != nil {
				return err
			}
			res, err := pipeline.Annotate(pkg, entries, pol)
			if err != nil {
				return err
			}
			if res.Added() > 0 {
				if err := container.Save(docPath, pkg); err != nil {
					return err
				}
			}
			log.Debug("footnote pass", "existing", res.Existing, "missing", res.Missing)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d footnote(s) to %s\n", res.Added(), docPath)
			if len(res.Missing) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Terms not found: %v\n", res.Missing)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&docPath, "doc", "", "document to annotate (.docx), modified in place")
	f.StringVar(&termsPath, "terms", "", "term list (YAML or JSON)")
	f.BoolVar(&pol.Acronyms, "acronyms", false, "also annotate all-caps acronyms found in the text")
	f.IntVar(&pol.MaxTerms, "max-terms", 0, "cap on the number of terms (0 = no cap)")
	f.StringVar(&pol.DefaultDefinition, "default-definition", "", "definition for terms without one")
	return cmd
}

func textCmd() *cobra.Command {
	var (
		docPath    string
		paragraphs bool
	)
	cmd := &cobra.Command{
		Use:   "text --doc D [--paragraphs]",
		Short: "Print the text of a document's main part",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if docPath == "" {
				return usageErr("text: --doc is required")
			}
			pkg, err := container.Load(docPath)
			if err != nil {
				return err
			}
			extract := footnotes.DocumentText
			if paragraphs {
				extract = footnotes.ParagraphText
			}
			text, err := extract(pkg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "document (.docx)")
	cmd.Flags().BoolVar(&paragraphs, "paragraphs", false, "print one line per paragraph instead of one per text fragment")
	return cmd
}

func validateCmd() *cobra.Command {
	var docPath string
	cmd := &cobra.Command{
		Use:   "validate --doc D",
		Short: "Check the consistency of a document package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if docPath == "" {
				return usageErr("validate: --doc is required")
			}
			pkg, err := container.Load(docPath)
			if err != nil {
				return err
			}
			if err := validate.Package(pkg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", docPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&docPath, "doc", "", "document (.docx)")
	return cmd
}

func chunkCmd() *cobra.Command {
	var (
		dir           string
		size, overlap int
		walk          ingest.WalkOptions
	)
	cmd := &cobra.Command{
		Use:   "chunk --dir DIR",
		Short: "Split client .docx files into overlapping word windows, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return usageErr("chunk: --dir is required")
			}
			docs, err := ingest.ChunkDir(dir, size, overlap, walk)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		},
	}
	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "directory of client documents")
	f.IntVar(&size, "size", ingest.DefaultChunkSize, "words per chunk")
	f.IntVar(&overlap, "overlap", ingest.DefaultChunkOverlap, "words shared by consecutive chunks")
	f.StringSliceVar(&walk.Exclude, "exclude", ingest.DefaultExclude, "file and directory name prefixes to skip")
	f.Int64Var(&walk.MaxFileBytes, "max-file-bytes", 0, "skip files larger than this (0 = no limit)")
	return cmd
}
