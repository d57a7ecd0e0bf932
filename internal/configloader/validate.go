package configloader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/annotext/pkg/config"
	"github.com/yaklabco/annotext/pkg/fsutil"
	"github.com/yaklabco/annotext/pkg/langdetect"
)

// ValidationError is an invalid or suspicious configuration value.
type ValidationError struct {
	// Field is the configuration key, e.g. "validation.tolerance".
	Field   string
	Value   any
	Message string

	// FilePath is the file the value came from, when known.
	FilePath string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{e.FilePath, e.Field, e.Message} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ": ")
}

// ValidationResult collects the findings of Validate. Errors stop loading;
// warnings are reported.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

func (r *ValidationResult) Valid() bool       { return len(r.Errors) == 0 }
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// AllMessages lists every finding, errors first.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

func (r *ValidationResult) fail(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field string, value any, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: message})
}

// oneOf fails field unless value is empty or among allowed.
func oneOf[T ~string](r *ValidationResult, field string, value T, allowed ...T) {
	if value == "" || slices.Contains(allowed, value) {
		return
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	r.fail(field, value, "invalid value %q; must be one of: %s", value, strings.Join(names, ", "))
}

func nonNegative(r *ValidationResult, field string, value int) {
	if value < 0 {
		r.fail(field, value, "must be >= 0, got %d", value)
	}
}

// Validate checks cfg. Empty values are valid; they mean "not set".
func Validate(cfg *config.Config) *ValidationResult {
	r := &ValidationResult{}
	if cfg == nil {
		return r
	}

	if cfg.LogLevel != "" {
		if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
			r.fail("log_level", cfg.LogLevel, "invalid value %q; must be one of: debug, info, warn, error", cfg.LogLevel)
		}
	}
	oneOf(r, "flavor", cfg.Flavor, config.FlavorCommonMark, config.FlavorGFM)
	oneOf(r, "format", cfg.Format, config.FormatText, config.FormatJSON)
	oneOf(r, "exclude.html", cfg.Exclude.HTML, config.HTMLComments, config.HTMLAll, config.HTMLNone)
	oneOf(r, "backups.mode", fsutil.BackupMode(cfg.Backups.Mode),
		fsutil.BackupModeSidecar, fsutil.BackupModeDirectory, fsutil.BackupModeNone)

	nonNegative(r, "validation.tolerance", cfg.Validation.Tolerance)
	nonNegative(r, "validation.max_sentence_span", cfg.Validation.MaxSentenceSpan)
	nonNegative(r, "watch.debounce_ms", cfg.Watch.DebounceMs)

	for i, fence := range cfg.Exclude.Fences {
		if langdetect.Normalize(fence) == "" {
			r.warn(fmt.Sprintf("exclude.fences[%d]", i), fence, "empty fence language is ignored")
		}
	}
	if cfg.Exclude.DetectLanguage && len(cfg.Exclude.Fences) == 0 {
		r.warn("exclude.detect_language", true, "detect_language has no effect without exclude.fences")
	}
	return r
}

// ValidateFile validates the values read from one file and names the file
// in every finding.
func ValidateFile(cfg *config.Config, path string) *ValidationResult {
	r := Validate(cfg)
	for i := range r.Errors {
		r.Errors[i].FilePath = path
	}
	for i := range r.Warnings {
		r.Warnings[i].FilePath = path
	}
	return r
}
