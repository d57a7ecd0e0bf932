package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/fsutil"
	"github.com/yaklabco/annotext/pkg/workflow"
)

// ErrReviewNeeded is returned in strict mode when a change flagged marks
// for review.
var ErrReviewNeeded = errors.New("marks need review")

type editFlags struct {
	rng       rangeFlags
	text      string
	linkText  string
	dryRun    bool
	noBackups bool
	strict    bool
}

func newEditCommand(flags *globalFlags) *cobra.Command {
	editOpts := &editFlags{}

	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Replace a selection of the document",
		Long: `Replace a selection of rendered text with new markdown. The selection is
validated first, so a partial link or word is widened before it is
replaced. The file is written atomically, a backup is kept unless disabled,
and marks after the edit shift with the text. Marks the edit touched are
flagged for review.

With --link-text the display text of the link under the selection is
rewritten and its URL kept.`,
		Example: `  annotext edit notes.md --match "teh" --text "the"
  annotext edit notes.md --start 10 --end 14 --text "[docs](https://example.com)" --dry-run
  annotext edit notes.md --match "docs" --link-text "the docs"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, flags, editOpts, args[0])
		},
	}

	editOpts.rng.register(cmd)
	cmd.Flags().StringVar(&editOpts.text, "text", "", "replacement markdown")
	cmd.Flags().StringVar(&editOpts.linkText, "link-text", "", "new display text for the link under the selection")
	cmd.MarkFlagsMutuallyExclusive("text", "link-text")
	cmd.Flags().BoolVarP(&editOpts.dryRun, "dry-run", "n", false, "show the diff without writing")
	cmd.Flags().BoolVar(&editOpts.noBackups, "no-backups", false, "do not keep a backup of the file")
	cmd.Flags().BoolVar(&editOpts.strict, "strict", false, "fail when marks need review after the edit")

	return cmd
}

func runEdit(cmd *cobra.Command, flags *globalFlags, editOpts *editFlags, arg string) error {
	env, err := loadEnv(cmd, flags, nil)
	if err != nil {
		return err
	}
	env.cfg.DryRun = env.cfg.DryRun || editOpts.dryRun
	env.cfg.NoBackups = env.cfg.NoBackups || editOpts.noBackups

	ctx := commandContext(cmd)
	doc, err := env.openDocument(ctx, arg)
	if err != nil {
		return err
	}
	defer doc.Close()

	sel, err := env.selectRange(doc, &editOpts.rng)
	if err != nil {
		return err
	}
	for _, correction := range sel.Result.Corrections {
		env.logger.Info("selection adjusted", "correction", correction)
	}
	for _, warning := range sel.Result.Warnings {
		env.logger.Warn(warning)
	}

	target := sel.Result.Cleaned()
	replacement := editOpts.text
	if cmd.Flags().Changed("link-text") {
		change, err := doc.session.LinkTextEdit(target, editOpts.linkText)
		if err != nil {
			return err
		}
		target, replacement = change.Range(), change.NewText
	}

	next, err := doc.session.Spaces().ReplaceCleaned(target, replacement)
	if err != nil {
		return err
	}
	before := doc.session.Spaces().Raw.String()
	after := next.Raw.String()

	diff := edit.GenerateDiff(arg, before, after)
	if !env.jsonOutput() {
		fmt.Fprint(env.out, env.styles.FormatDiff(diff))
	}

	if env.cfg.DryRun {
		env.logger.Info("dry run, nothing written", logging.FieldPath, arg, logging.FieldRange, target.String())
		if env.jsonOutput() {
			return writeJSON(env.out, toCommitJSON(workflow.Commit{}))
		}
		return nil
	}

	if env.cfg.BackupsActive() && diff.HasChanges() {
		backups := fsutil.NewBackups(fsutil.BackupMode(env.cfg.Backups.Mode))
		created, err := backups.Create(ctx, doc.path)
		if err != nil {
			return err
		}
		if created {
			env.logger.Debug("backup created", logging.FieldBackup, backups.Path(doc.path))
		}
	}

	info, err := fsutil.WriteDocument(ctx, doc.info, after)
	if err != nil {
		return err
	}
	doc.info = info

	commit, err := doc.session.ReplaceCleaned(ctx, target, replacement)
	if err != nil {
		return err
	}

	if env.jsonOutput() {
		if err := writeJSON(env.out, toCommitJSON(commit)); err != nil {
			return err
		}
	} else {
		fmt.Fprint(env.out, env.styles.FormatCommit(commit))
	}

	if editOpts.strict && len(commit.Reconciliation.FlaggedForReview) > 0 {
		return ErrReviewNeeded
	}
	return nil
}
