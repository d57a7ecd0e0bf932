package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// BackupMode selects where the backup of a document is kept.
type BackupMode string

const (
	// BackupModeSidecar keeps the backup next to the document, named with
	// BackupSuffix.
	BackupModeSidecar BackupMode = "sidecar"

	// BackupModeDirectory keeps backups in BackupDir below the document's
	// directory.
	BackupModeDirectory BackupMode = "directory"

	// BackupModeNone disables backups.
	BackupModeNone BackupMode = "none"
)

const (
	// BackupSuffix is appended to a document name to name its backup.
	BackupSuffix = ".annotext.bak"

	// BackupDir is the directory used by BackupModeDirectory.
	BackupDir = ".annotext-backups"
)

// Backups manages the backup of the version of a document before it was
// first edited. A document has at most one backup; later edits keep it.
type Backups struct {
	Mode BackupMode
}

// NewBackups returns Backups for mode. Unknown modes behave as sidecar.
func NewBackups(mode BackupMode) Backups {
	return Backups{Mode: mode}
}

// Enabled reports whether backups are written.
func (b Backups) Enabled() bool {
	return b.Mode != BackupModeNone
}

// Path returns the backup location of the document at path, or "" when
// backups are disabled.
func (b Backups) Path(path string) string {
	switch b.Mode {
	case BackupModeNone:
		return ""
	case BackupModeDirectory:
		return filepath.Join(filepath.Dir(path), BackupDir, filepath.Base(path)+BackupSuffix)
	default:
		return path + BackupSuffix
	}
}

// Create copies the document at path to its backup location unless a
// backup already exists. It returns true if a backup was written.
func (b Backups) Create(ctx context.Context, path string) (bool, error) {
	backupPath := b.Path(path)
	if backupPath == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("create backup: %w", err)
	}

	switch _, err := os.Stat(backupPath); {
	case err == nil:
		return false, nil
	case !os.IsNotExist(err):
		return false, fmt.Errorf("stat backup: %w", err)
	}

	if err := copyFile(ctx, path, backupPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("write backup: %w", err)
	}
	return true, nil
}

// Restore replaces the document at path with its backup. It returns false
// if there is no backup.
func (b Backups) Restore(ctx context.Context, path string) (bool, error) {
	backupPath := b.Path(path)
	if backupPath == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("restore backup: %w", err)
	}

	if err := copyFile(ctx, backupPath, path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("restore backup: %w", err)
	}
	return true, nil
}

// Remove deletes the backup of the document at path. It returns false if
// there was none.
func (b Backups) Remove(path string) (bool, error) {
	backupPath := b.Path(path)
	if backupPath == "" {
		return false, nil
	}

	if err := os.Remove(backupPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove backup: %w", err)
	}
	return true, nil
}

// copyFile atomically copies src to dst, keeping the mode of src and
// creating the directory of dst. A missing src is returned unwrapped so
// os.IsNotExist applies.
func copyFile(ctx context.Context, src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	stat, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	return WriteAtomic(ctx, dst, content, stat.Mode().Perm())
}
