// Package fsutil reads and writes annotated documents on disk. A read
// records the state of the file so a later write can refuse to clobber a
// change made by another editor. Writes are atomic and the version before
// the first edit can be kept as a backup.
package fsutil

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	"unicode/utf8"

	"github.com/yaklabco/annotext/pkg/langdetect"
)

var (
	ErrNilFileInfo      = errors.New("nil FileInfo")
	ErrNotFound         = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIsDirectory      = errors.New("path is a directory")

	// ErrNotText rejects binary files and invalid UTF-8.
	ErrNotText = errors.New("not a text document")

	// ErrModified reports a file that changed on disk after it was read.
	ErrModified = errors.New("file modified since it was read")
)

// FileInfo is the state of a file when it was read.
type FileInfo struct {
	Path    string
	Mode    os.FileMode
	ModTime time.Time
	Size    int64

	// Hash is the SHA-256 of the content.
	Hash [sha256.Size]byte
}

// sameStat reports whether stat still matches the recorded time and size.
func (info *FileInfo) sameStat(stat fs.FileInfo) bool {
	return stat.ModTime().Equal(info.ModTime) && stat.Size() == info.Size
}

// classify wraps a filesystem error of path with the matching sentinel.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}

// ReadFile reads the file at path and records its state.
func ReadFile(ctx context.Context, path string) ([]byte, *FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, classify("stat", path, err)
	}
	if stat.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, classify("read", path, err)
	}

	return content, &FileInfo{
		Path:    path,
		Mode:    stat.Mode(),
		ModTime: stat.ModTime(),
		Size:    stat.Size(),
		Hash:    sha256.Sum256(content),
	}, nil
}

// ReadDocument reads a markdown document as text. Binary content and
// invalid UTF-8 fail with ErrNotText.
func ReadDocument(ctx context.Context, path string) (string, *FileInfo, error) {
	content, info, err := ReadFile(ctx, path)
	if err != nil {
		return "", nil, err
	}
	if !utf8.Valid(content) || langdetect.IsBinary(content) {
		return "", nil, fmt.Errorf("%w: %s", ErrNotText, path)
	}
	return string(content), info, nil
}

// CheckModified reports whether the file changed since info was recorded.
// A changed time or size is enough. Otherwise the content is hashed, which
// catches rewrites of the same size within the clock resolution. A deleted
// file counts as modified.
func CheckModified(ctx context.Context, info *FileInfo) (bool, error) {
	return checkModified(ctx, info, true)
}

// CheckModifiedQuick compares only time and size. The watcher uses it to
// drop events that left the file untouched.
func CheckModifiedQuick(ctx context.Context, info *FileInfo) (bool, error) {
	return checkModified(ctx, info, false)
}

func checkModified(ctx context.Context, info *FileInfo, hash bool) (bool, error) {
	if info == nil {
		return false, ErrNilFileInfo
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("check %s: %w", info.Path, err)
	}

	stat, err := os.Stat(info.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	case err != nil:
		return false, classify("stat", info.Path, err)
	case !info.sameStat(stat):
		return true, nil
	case !hash:
		return false, nil
	}

	content, err := os.ReadFile(info.Path)
	if err != nil {
		return false, classify("read", info.Path, err)
	}
	return sha256.Sum256(content) != info.Hash, nil
}
