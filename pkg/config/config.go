// Package config defines the configuration types for annotext.
// These are pure data structures; loading and layering live in the CLI.
package config

import "github.com/yaklabco/annotext/pkg/selection"

// Flavor specifies the Markdown flavor used to find excluded blocks.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// HTMLMode selects which HTML blocks are excluded from cleaned text.
type HTMLMode string

const (
	// HTMLComments excludes HTML blocks that are comments, such as
	// metadata headers.
	HTMLComments HTMLMode = "comments"

	// HTMLAll excludes every HTML block.
	HTMLAll HTMLMode = "all"

	// HTMLNone keeps HTML blocks in cleaned text.
	HTMLNone HTMLMode = "none"
)

// OutputFormat specifies the CLI output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ValidationConfig tunes the selection boundary validator.
type ValidationConfig struct {
	// Tolerance is the largest round-trip drift accepted without
	// correction.
	Tolerance int `yaml:"tolerance" toml:"tolerance"`

	// MaxSentenceSpan caps sentence expansion.
	MaxSentenceSpan int `yaml:"max_sentence_span" toml:"max_sentence_span"`
}

// ExcludeConfig controls which raw regions are cut from cleaned text.
type ExcludeConfig struct {
	// HTML selects excluded HTML blocks.
	HTML HTMLMode `yaml:"html" toml:"html"`

	// Fences lists fence languages to exclude, e.g. "yaml" or "mermaid".
	Fences []string `yaml:"fences" toml:"fences"`

	// DetectLanguage names unlabelled fences by their content.
	DetectLanguage bool `yaml:"detect_language" toml:"detect_language"`
}

// StoreConfig locates the annotation database.
type StoreConfig struct {
	// Path is the SQLite database file. Relative paths resolve against
	// the directory of the document.
	Path string `yaml:"path" toml:"path"`
}

// BackupsConfig controls backups written before a document is edited.
type BackupsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Mode    string `yaml:"mode" toml:"mode"` // "sidecar", "directory" or "none"
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	// DebounceMs delays a sync until writes have settled.
	DebounceMs int `yaml:"debounce_ms" toml:"debounce_ms"`
}

// Config is the root configuration structure for annotext.
type Config struct {
	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Flavor specifies the Markdown flavor ("commonmark" or "gfm").
	Flavor Flavor `yaml:"flavor" toml:"flavor"`

	Validation ValidationConfig `yaml:"validation" toml:"validation"`
	Exclude    ExcludeConfig    `yaml:"exclude" toml:"exclude"`
	Store      StoreConfig      `yaml:"store" toml:"store"`
	Backups    BackupsConfig    `yaml:"backups" toml:"backups"`
	Watch      WatchConfig      `yaml:"watch" toml:"watch"`

	// CLI-level options (not persisted to config files).

	// Format specifies the output format.
	Format OutputFormat `yaml:"-" toml:"-"`

	// DryRun shows what an edit would change without writing it.
	DryRun bool `yaml:"-" toml:"-"`

	// NoBackups disables backup creation when editing.
	NoBackups bool `yaml:"-" toml:"-"`
}

// DefaultStorePath is the database file used when none is configured.
const DefaultStorePath = ".annotext.db"

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: "warn",
		Flavor:   FlavorCommonMark,
		Validation: ValidationConfig{
			Tolerance:       selection.DefaultTolerance,
			MaxSentenceSpan: selection.DefaultMaxSentenceSpan,
		},
		Exclude: ExcludeConfig{
			HTML: HTMLComments,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Backups: BackupsConfig{
			Enabled: true,
			Mode:    "sidecar",
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
		Format: FormatText,
	}
}

// BackupsActive reports whether a backup should be written before an edit.
func (c *Config) BackupsActive() bool {
	return c.Backups.Enabled && c.Backups.Mode != "none" && !c.NoBackups
}
