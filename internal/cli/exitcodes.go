package cli

import (
	"errors"

	"github.com/yaklabco/annotext/pkg/fsutil"
	"github.com/yaklabco/annotext/pkg/linktok"
	"github.com/yaklabco/annotext/pkg/store"
)

// Exit codes for annotext.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitFailure indicates a command failed for a reason not listed below.
	ExitFailure = 1

	// ExitReviewNeeded indicates a change flagged marks for review (strict mode).
	ExitReviewNeeded = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrReviewNeeded):
		return ExitReviewNeeded
	case errors.Is(err, ErrNoRange), errors.Is(err, ErrNoMatch), errors.Is(err, linktok.ErrInvalidLink):
		return ExitInvalidUsage
	case errors.Is(err, ErrConfig):
		return ExitConfigError
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory),
		errors.Is(err, fsutil.ErrNotText),
		errors.Is(err, fsutil.ErrModified):
		return ExitIOError
	case errors.Is(err, store.ErrNotFound):
		return ExitInternalError
	default:
		return ExitFailure
	}
}
