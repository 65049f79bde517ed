// Package diag sets up structured logging and classifies errors for exit
// codes and log fields.
package diag

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// EnvLogLevel names the environment variable read by LevelFromEnv.
const EnvLogLevel = "CIRDOC_LOG_LEVEL"

// ParseLevel maps debug|info|warn|error (any case) to a slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromEnv returns the level named by CIRDOC_LOG_LEVEL, or fallback when
// the variable is unset.
func LevelFromEnv(fallback string) slog.Level {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		return ParseLevel(v)
	}
	return ParseLevel(fallback)
}

// NewLogger returns a text logger writing to w at the given level. A nil w
// writes to stderr.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Stage logs the start of a pipeline stage at debug level and returns a
// finish func that logs its outcome with the elapsed time and any extra
// attributes.
func Stage(log *slog.Logger, name string) func(err error, attrs ...any) {
	start := time.Now()
	log.Debug("stage start", "stage", name)
	return func(err error, attrs ...any) {
		args := append([]any{"stage", name, "elapsed_ms", time.Since(start).Milliseconds()}, attrs...)
		if err != nil {
			args = append(args, "code", string(Classify(err)), "err", err)
			log.Error("stage failed", args...)
			return
		}
		log.Info("stage done", args...)
	}
}
