package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/pkg/fsutil"
	"github.com/yaklabco/annotext/pkg/workflow"
)

func newWatchCommand(flags *globalFlags) *cobra.Command {
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Keep marks in step while the document is edited elsewhere",
		Long: `Watch a document and sync its marks every time it is saved, so edits made
in any editor shift or flag marks as they happen. Writes are debounced so a
burst of saves is synced once. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, flags, nil)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				env.cfg.Watch.DebounceMs = debounceMs
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return env.watch(ctx, args[0])
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 0, "milliseconds to wait for writes to settle")
	return cmd
}

// watch syncs the document at arg on every change until ctx is done.
func (e *commandEnv) watch(ctx context.Context, arg string) error {
	doc, err := e.openDocument(ctx, arg)
	if err != nil {
		return err
	}
	defer doc.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file on save, so watch its directory.
	if err := watcher.Add(filepath.Dir(doc.path)); err != nil {
		return fmt.Errorf("watch %s: %w", arg, err)
	}

	e.logger.Info("watching", logging.FieldPath, arg, logging.FieldDebounce, e.debounce())
	e.printCommit(doc.synced)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("stopped watching", logging.FieldPath, arg)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != doc.path {
				continue
			}
			e.logger.Debug("file event", logging.FieldEvent, event.Op.String())
			timer.Reset(e.debounce())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", logging.FieldError, err)

		case <-timer.C:
			if err := e.syncChange(ctx, doc); err != nil {
				if errors.Is(err, fsutil.ErrNotFound) {
					e.logger.Debug("document missing, waiting for it to return", logging.FieldPath, arg)
					continue
				}
				e.logger.Error("sync failed", logging.FieldPath, arg, logging.FieldError, err)
			}
		}
	}
}

// syncChange commits the file on disk when it differs from the last
// version read.
func (e *commandEnv) syncChange(ctx context.Context, doc *document) error {
	modified, err := fsutil.CheckModifiedQuick(ctx, doc.info)
	if err != nil {
		return err
	}
	if !modified {
		return nil
	}

	content, info, err := fsutil.ReadDocument(ctx, doc.path)
	if err != nil {
		return err
	}

	commit, err := doc.session.Sync(ctx, content)
	if err != nil {
		return err
	}
	doc.info = info

	e.printCommit(commit)
	return nil
}

// printCommit writes one line per commit. On a terminal each line is
// prefixed with the time of the sync.
func (e *commandEnv) printCommit(commit workflow.Commit) {
	if e.jsonOutput() {
		if err := writeJSON(e.out, toCommitJSON(commit)); err != nil {
			e.logger.Warn("write output", logging.FieldError, err)
		}
		return
	}

	line := e.styles.FormatCommit(commit)
	if f, ok := e.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		line = e.styles.Dim.Render(time.Now().Format(time.TimeOnly)) + " " + line
	}
	fmt.Fprint(e.out, line)
}
