package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileMode is the mode of documents written without a known mode.
const DefaultFileMode os.FileMode = 0644

// WriteAtomic replaces path with content. The content is staged in a
// temporary file next to path and renamed over it, so readers see either
// the old or the new document. A zero mode means DefaultFileMode.
func WriteAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if mode == 0 {
		mode = DefaultFileMode
	}

	staged, err := stage(path, content, mode)
	if err != nil {
		return err
	}
	if err := os.Rename(staged, path); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// stage writes content to a synced temporary file in the directory of
// path and returns its name. The file is removed on failure.
func stage(path string, content []byte, mode os.FileMode) (name string, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", path, err)
	}
	name = tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(name)
		}
	}()

	steps := []struct {
		what string
		run  func() error
	}{
		{"write", func() error { _, werr := tmp.Write(content); return werr }},
		{"sync", tmp.Sync},
		{"close", tmp.Close},
		{"chmod", func() error { return os.Chmod(name, mode) }},
	}
	for _, step := range steps {
		if err = step.run(); err != nil {
			return "", fmt.Errorf("stage %s: %s: %w", path, step.what, err)
		}
	}
	return name, nil
}

// WriteDocument saves content over the document described by info, keeping
// its mode, and returns the state of the written file. If the document
// changed on disk since info was read, nothing is written and the error
// wraps ErrModified.
func WriteDocument(ctx context.Context, info *FileInfo, content string) (*FileInfo, error) {
	modified, err := CheckModified(ctx, info)
	if err != nil {
		return nil, err
	}
	if modified {
		return nil, fmt.Errorf("%w: %s", ErrModified, info.Path)
	}

	if err := WriteAtomic(ctx, info.Path, []byte(content), info.Mode.Perm()); err != nil {
		return nil, err
	}

	_, written, err := ReadFile(ctx, info.Path)
	if err != nil {
		return nil, err
	}
	return written, nil
}
