// Package main provides the cirdoc CLI, which assembles research-tax-credit
// dossiers from a Word template: branding, generated sections and glossary
// footnotes.
//
// Commands:
//   - build     : full pipeline from a YAML job file
//   - brand     : stamp client name, year and logo onto a template
//   - fill      : patch generated sections into a template
//   - footnotes : place glossary footnotes in a document, in place
//   - text      : print the document text for term detection
//   - validate  : check package consistency
//   - chunk     : split a directory of client documents into text windows
//
// Summaries go to stdout, logs to stderr. The exit code reflects the error
// class (see diag.ExitCode).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"cirdoc/internal/config"
	"cirdoc/internal/diag"
)

var version = "0.3.0"

// app holds the state shared by all commands.
type app struct {
	envFiles []string
	logLevel string
}

// logger builds the process logger. The --log-level flag wins over the
// environment, which wins over fallback (typically the job file value).
func (a *app) logger(cmd *cobra.Command, fallback string) *slog.Logger {
	level := diag.LevelFromEnv(fallback)
	if a.logLevel != "" {
		level = diag.ParseLevel(a.logLevel)
	}
	return diag.NewLogger(cmd.ErrOrStderr(), level)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "cirdoc",
		Short: "Assemble CIR dossiers from Word templates",
		Long: `cirdoc fills a Word template with generated sections, stamps the client
identity onto it, and places glossary footnotes at the first occurrence of
each term.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(a.envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env", []string{".env"}, "dotenv files to load (missing files are skipped)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		buildCmd(a),
		brandCmd(a),
		fillCmd(a),
		footnotesCmd(a),
		textCmd(),
		validateCmd(),
		chunkCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		stop()
		os.Exit(diag.ExitCode(err))
	}
}
