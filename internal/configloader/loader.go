// Package configloader resolves the annotext configuration. It discovers
// configuration files, merges them in precedence order, applies
// environment overrides, and validates the result.
package configloader

import (
	"context"
	"fmt"
	"os"

	"github.com/yaklabco/annotext/pkg/config"
)

// LoadOptions controls which sources Load reads.
type LoadOptions struct {
	// WorkingDir is where the project config search starts. Empty means
	// the current directory.
	WorkingDir string

	// ExplicitPath is the file named by --config. It must exist.
	ExplicitPath string

	IgnoreUserConfig    bool
	IgnoreProjectConfig bool
	IgnoreEnv           bool

	// CLIConfig holds values set by flags. They win over every other
	// source.
	CLIConfig *config.Config
}

// LoadResult is a resolved configuration and where it came from.
type LoadResult struct {
	Config *config.Config
	Paths  *ConfigPaths

	// LoadedFrom lists the files read, lowest precedence first.
	LoadedFrom []string

	// Warnings are problems that did not stop loading, such as unknown
	// keys.
	Warnings []string
}

// layer is one configuration file in precedence order.
type layer struct {
	name string
	path string
	skip bool
}

// Load resolves the configuration. From lowest to highest precedence the
// sources are the defaults, the user file, the project file, the
// explicit file, ANNOTEXT_* variables, and flags.
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	workDir := opts.WorkingDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workDir = wd
	}

	paths, err := DiscoverPaths(ctx, workDir)
	if err != nil {
		return nil, fmt.Errorf("discover paths: %w", err)
	}
	paths.Explicit = opts.ExplicitPath

	result := &LoadResult{Paths: paths}
	cfg := config.NewConfig()

	for _, l := range []layer{
		{name: "user", path: paths.User, skip: opts.IgnoreUserConfig},
		{name: "project", path: paths.Project, skip: opts.IgnoreProjectConfig},
		{name: "explicit", path: paths.Explicit},
	} {
		if l.skip || l.path == "" {
			continue
		}

		fileCfg, unknown, err := loadConfigFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("load %s config: %w", l.name, err)
		}
		if checked := ValidateFile(fileCfg, l.path); !checked.Valid() {
			return nil, &checked.Errors[0]
		}
		for _, key := range unknown {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: unknown key %q is ignored", l.path, key))
		}

		cfg = merge(cfg, fileCfg)
		result.LoadedFrom = append(result.LoadedFrom, l.path)
	}

	if !opts.IgnoreEnv {
		if err := LoadFromEnv(cfg); err != nil {
			return nil, fmt.Errorf("load environment: %w", err)
		}
	}
	cfg = merge(cfg, opts.CLIConfig)

	validation := Validate(cfg)
	if !validation.Valid() {
		return nil, &validation.Errors[0]
	}
	for _, w := range validation.Warnings {
		result.Warnings = append(result.Warnings, w.Message)
	}

	result.Config = cfg
	return result, nil
}

func loadConfigFile(path string) (*config.Config, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	return config.Decode(config.EncodingFor(path), content)
}

// ConfigFileName is the project file name written for enc.
func ConfigFileName(enc config.Encoding) string {
	if enc == config.EncodingTOML {
		return ".annotext.toml"
	}
	return ".annotext.yml"
}
