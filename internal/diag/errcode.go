package diag

import (
	"context"
	"errors"
	"os"

	"cirdoc/internal/branding"
	"cirdoc/internal/config"
	"cirdoc/internal/container"
	"cirdoc/internal/ingest"
	"cirdoc/internal/validate"
)

// Code is a coarse error class used in logs and for the process exit code.
type Code string

const (
	CodeUnknown Code = "unknown"
	CodeUsage   Code = "usage"
	CodeInput   Code = "input"
	CodeInvalid Code = "invalid"
	CodeCancel  Code = "cancel"
	CodeIO      Code = "io"
)

// Classify buckets err by sentinel errors and standard error types only.
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, branding.ErrNoClient) ||
		errors.Is(err, branding.ErrNoYear) ||
		errors.Is(err, ingest.ErrWindow) {
		return CodeUsage
	}
	if errors.Is(err, validate.ErrInvalid) {
		return CodeInvalid
	}
	if errors.Is(err, container.ErrNotZip) || errors.Is(err, container.ErrPartMissing) {
		return CodeInput
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// ExitCode maps an error to a process exit status; nil is 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch Classify(err) {
	case CodeUsage:
		return 2
	case CodeInput:
		return 3
	case CodeInvalid:
		return 4
	case CodeIO:
		return 5
	case CodeCancel:
		return 130
	default:
		return 1
	}
}
