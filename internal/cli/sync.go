package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/pkg/runner"
	"github.com/yaklabco/annotext/pkg/workflow"
)

type syncFlags struct {
	strict  bool
	jobs    int
	exclude []string
}

func newSyncCommand(flags *globalFlags) *cobra.Command {
	syncOpts := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync <path>...",
		Short: "Reconcile marks with changes made outside annotext",
		Long: `Compare documents on disk with the last versions annotext stored and
update marks to match: marks after a change shift, marks a change touched
are flagged for review. Every other command syncs first, so sync is only
needed to record changes on their own.

Directories are searched for .md and .markdown files. Documents sharing a
store are synced one after another; separate stores are synced in
parallel.`,
		Example: `  annotext sync notes.md
  annotext sync docs --exclude "drafts/**" --jobs 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, flags, nil)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			if len(args) == 1 {
				if info, err := os.Stat(args[0]); err != nil || !info.IsDir() {
					return env.syncOne(ctx, args[0], syncOpts.strict)
				}
			}
			return env.syncMany(ctx, args, syncOpts)
		},
	}

	cmd.Flags().BoolVar(&syncOpts.strict, "strict", false, "fail when marks need review after the sync")
	cmd.Flags().IntVarP(&syncOpts.jobs, "jobs", "j", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().StringSliceVar(&syncOpts.exclude, "exclude", nil, "glob patterns of files to skip")
	return cmd
}

func (e *commandEnv) syncOne(ctx context.Context, arg string, strict bool) error {
	doc, err := e.openDocument(ctx, arg)
	if err != nil {
		return err
	}
	defer doc.Close()

	if e.jsonOutput() {
		if err := writeJSON(e.out, toCommitJSON(doc.synced)); err != nil {
			return err
		}
	} else {
		fmt.Fprint(e.out, e.styles.FormatCommit(doc.synced))
	}

	if strict && len(doc.synced.Reconciliation.FlaggedForReview) > 0 {
		return ErrReviewNeeded
	}
	return nil
}

// syncDocument opens, syncs, and closes one document.
func (e *commandEnv) syncDocument(ctx context.Context, path string) (workflow.Commit, error) {
	doc, err := e.openDocument(ctx, path)
	if err != nil {
		return workflow.Commit{}, err
	}
	defer doc.Close()
	return doc.synced, nil
}

type fileJSON struct {
	Path   string      `json:"path"`
	Commit *commitJSON `json:"commit,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (e *commandEnv) syncMany(ctx context.Context, paths []string, syncOpts *syncFlags) error {
	result, err := runner.New(e.syncDocument).Run(ctx, runner.Options{
		Paths:        paths,
		WorkingDir:   e.workDir,
		ExcludeGlobs: syncOpts.exclude,
		Jobs:         syncOpts.jobs,
		GroupKey:     e.storePath,
	})
	if err != nil {
		return err
	}

	e.logger.Debug("sync finished", logging.FieldFiles, result.Stats.FilesDiscovered,
		logging.FieldShifted, result.Stats.MarksShifted,
		logging.FieldFlagged, result.Stats.MarksFlagged)

	if e.jsonOutput() {
		out := make([]fileJSON, 0, len(result.Files))
		for _, f := range result.Files {
			entry := fileJSON{Path: e.relPath(f.Path)}
			if f.Error != nil {
				entry.Error = f.Error.Error()
			} else {
				commit := toCommitJSON(f.Commit)
				entry.Commit = &commit
			}
			out = append(out, entry)
		}
		if err := writeJSON(e.out, out); err != nil {
			return err
		}
	} else {
		for _, f := range result.Files {
			line := e.styles.FormatCommit(f.Commit)
			if f.Error != nil {
				line = e.styles.Failure.Render(f.Error.Error()) + "\n"
			}
			fmt.Fprintf(e.out, "%s: %s", e.styles.FilePath.Render(e.relPath(f.Path)), line)
		}
		stats := result.Stats
		fmt.Fprintf(e.out, "%d changed, %d unchanged, %d failed\n",
			stats.FilesChanged, stats.FilesUnchanged, stats.FilesErrored)
	}

	switch {
	case result.HasErrors():
		return fmt.Errorf("sync failed for %d of %d files", result.Stats.FilesErrored, result.Stats.FilesDiscovered)
	case syncOpts.strict && result.NeedsReview():
		return ErrReviewNeeded
	default:
		return nil
	}
}

// relPath shows path relative to the working directory when it is below it.
func (e *commandEnv) relPath(path string) string {
	rel, err := filepath.Rel(e.workDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
