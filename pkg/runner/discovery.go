package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Discover lists the documents named by opts: sorted absolute paths
// without duplicates. A file argument is kept whatever its extension; a
// directory contributes the files below it with a document extension.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	workDir := opts.WorkingDir
	if workDir == "" {
		workDir = "."
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	excludes, err := compileExcludes(opts.ExcludeGlobs)
	if err != nil {
		return nil, err
	}
	w := walker{opts: opts, excludes: excludes, exts: opts.effectiveExtensions()}

	var files []string
	for _, arg := range opts.effectivePaths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		path = filepath.Clean(path)

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		found, err := w.walk(ctx, path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// exclude is a compiled exclude pattern. Patterns without a slash also
// match the base name.
type exclude struct {
	g        glob.Glob
	baseName bool
}

func compileExcludes(patterns []string) ([]exclude, error) {
	out := make([]exclude, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		out = append(out, exclude{g: g, baseName: !strings.Contains(pattern, "/")})
	}
	return out, nil
}

// excluded reports whether the slash path rel, relative to the searched
// directory, matches an exclude pattern. Directories also match patterns
// for their contents, so "drafts/**" prunes drafts.
func excluded(rel string, dir bool, excludes []exclude) bool {
	return slices.ContainsFunc(excludes, func(e exclude) bool {
		switch {
		case e.g.Match(rel):
			return true
		case dir && e.g.Match(rel+"/"):
			return true
		default:
			return e.baseName && e.g.Match(pathBase(rel))
		}
	})
}

func pathBase(rel string) string {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[i+1:]
	}
	return rel
}

type walker struct {
	opts     Options
	excludes []exclude
	exts     []string
}

// walk returns the documents below root, skipping hidden entries.
func (w walker) walk(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		hidden := strings.HasPrefix(entry.Name(), ".")

		if entry.IsDir() {
			if hidden || excluded(rel, true, w.excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || excluded(rel, false, w.excludes) {
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			sub, handled, err := w.followLink(ctx, path)
			if err != nil || handled {
				files = append(files, sub...)
				return err
			}
		}

		if w.isDocument(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}
	return files, nil
}

// followLink resolves a symlink found while walking. A link to a directory
// is walked when FollowSymlinks is set and skipped otherwise. Broken links
// are skipped. It reports false for a link to a file, which the caller
// treats as a file.
func (w walker) followLink(ctx context.Context, path string) ([]string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, true, nil
	}
	if !info.IsDir() {
		return nil, false, nil
	}
	if !w.opts.FollowSymlinks {
		return nil, true, nil
	}

	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, true, nil
	}
	files, err := w.walk(ctx, target)
	return files, true, err
}

func (w walker) isDocument(path string) bool {
	ext := filepath.Ext(path)
	return slices.ContainsFunc(w.exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}
