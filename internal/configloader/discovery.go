package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigPaths are the configuration files found for a working directory.
// An empty field means no such file exists.
type ConfigPaths struct {
	// User is the file in the user config directory.
	User string

	// Project is the nearest project file at or above the working directory.
	Project string

	// Explicit is the file named by --config.
	Explicit string
}

// Candidate names, in order of preference.
//
//nolint:gochecknoglobals // Read-only lookup tables.
var (
	projectConfigFiles = []string{
		".annotext.yml",
		".annotext.yaml",
		".annotext.toml",
		filepath.Join(".annotext", "config.yml"),
		filepath.Join(".annotext", "config.toml"),
	}
	userConfigFiles = []string{"config.yaml", "config.yml", "config.toml"}

	// A directory holding one of these is the top of a project.
	projectRootMarkers = []string{".git", ".hg", ".svn"}
)

// DiscoverPaths finds the user and project configuration files that apply
// to workDir.
func DiscoverPaths(ctx context.Context, workDir string) (*ConfigPaths, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discover config: %w", err)
	}

	project, err := FindProjectConfig(ctx, workDir)
	if err != nil {
		return nil, err
	}
	return &ConfigPaths{User: findUserConfig(), Project: project}, nil
}

// userConfigDir is $XDG_CONFIG_HOME/annotext, or ~/.config/annotext.
func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "annotext")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "annotext")
}

func findUserConfig() string {
	dir := userConfigDir()
	if dir == "" {
		return ""
	}
	return firstFile(dir, userConfigFiles)
}

// FindProjectConfig returns the nearest project configuration file at or
// above startDir, or "" when there is none. The search ends at a project
// root, the home directory, or the filesystem root.
func FindProjectConfig(ctx context.Context, startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", startDir, err)
	}
	home, _ := os.UserHomeDir()

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("find project config: %w", err)
		}

		if found := firstFile(dir, projectConfigFiles); found != "" {
			return found, nil
		}

		parent := filepath.Dir(dir)
		if isProjectRoot(dir) || dir == home || parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func isProjectRoot(dir string) bool {
	for _, marker := range projectRootMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// firstFile returns the first of names that is a regular file in dir.
func firstFile(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}
