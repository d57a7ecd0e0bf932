package configloader

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/yaklabco/annotext/pkg/config"
)

// EnvPrefix starts the name of every environment variable annotext reads.
const EnvPrefix = "ANNOTEXT_"

// EnvVar describes one environment override.
type EnvVar struct {
	// Name is the full variable name, including EnvPrefix.
	Name string

	// Key is the configuration key the variable overrides.
	Key string

	Help string

	set func(cfg *config.Config, value string) error
}

func stringVar(apply func(*config.Config, string)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		apply(cfg, value)
		return nil
	}
}

func intVar(apply func(*config.Config, int)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		apply(cfg, n)
		return nil
	}
}

func boolVar(apply func(*config.Config, bool)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid boolean %q (expected true/false/1/0)", value)
		}
		apply(cfg, b)
		return nil
	}
}

// listVar splits a comma-separated value, dropping blank items.
func listVar(apply func(*config.Config, []string)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		apply(cfg, items)
		return nil
	}
}

// envVars is sorted by Name.
//
//nolint:gochecknoglobals // Read-only table.
var envVars = []EnvVar{
	{Name: "BACKUPS_MODE", Key: "backups.mode", Help: "Backup mode: sidecar, directory, or none",
		set: stringVar(func(c *config.Config, v string) { c.Backups.Mode = v })},
	{Name: "DEBOUNCE_MS", Key: "watch.debounce_ms", Help: "Watch debounce in milliseconds",
		set: intVar(func(c *config.Config, v int) { c.Watch.DebounceMs = v })},
	{Name: "DETECT_LANGUAGE", Key: "exclude.detect_language", Help: "Detect the language of unlabelled fences",
		set: boolVar(func(c *config.Config, v bool) { c.Exclude.DetectLanguage = v })},
	{Name: "EXCLUDE_FENCES", Key: "exclude.fences", Help: "Comma-separated fence languages to exclude",
		set: listVar(func(c *config.Config, v []string) { c.Exclude.Fences = v })},
	{Name: "EXCLUDE_HTML", Key: "exclude.html", Help: "Excluded HTML blocks: comments, all, or none",
		set: stringVar(func(c *config.Config, v string) { c.Exclude.HTML = config.HTMLMode(v) })},
	{Name: "FLAVOR", Key: "flavor", Help: "Markdown flavor: commonmark or gfm",
		set: stringVar(func(c *config.Config, v string) { c.Flavor = config.Flavor(v) })},
	{Name: "FORMAT", Key: "format", Help: "Output format: text or json",
		set: stringVar(func(c *config.Config, v string) { c.Format = config.OutputFormat(v) })},
	{Name: "LOG_LEVEL", Key: "log_level", Help: "Log level: debug, info, warn, or error",
		set: stringVar(func(c *config.Config, v string) { c.LogLevel = v })},
	{Name: "MAX_SENTENCE_SPAN", Key: "validation.max_sentence_span", Help: "Largest sentence expansion",
		set: intVar(func(c *config.Config, v int) { c.Validation.MaxSentenceSpan = v })},
	{Name: "NO_BACKUPS", Key: "no_backups", Help: "Disable backups: true or false",
		set: boolVar(func(c *config.Config, v bool) { c.NoBackups = v })},
	{Name: "STORE", Key: "store.path", Help: "Annotation database path",
		set: stringVar(func(c *config.Config, v string) { c.Store.Path = v })},
	{Name: "TOLERANCE", Key: "validation.tolerance", Help: "Accepted round-trip drift",
		set: intVar(func(c *config.Config, v int) { c.Validation.Tolerance = v })},
}

// LoadFromEnv applies the ANNOTEXT_* variables that are set and non-empty
// to cfg.
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	for _, v := range envVars {
		name := EnvPrefix + v.Name
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if err := v.set(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// ListEnvVars returns the supported environment variables sorted by name.
func ListEnvVars() []EnvVar {
	vars := slices.Clone(envVars)
	for i := range vars {
		vars[i].Name = EnvPrefix + vars[i].Name
		vars[i].set = nil
	}
	return vars
}
