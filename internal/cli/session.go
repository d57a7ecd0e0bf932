package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/configloader"
	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/internal/ui/pretty"
	"github.com/yaklabco/annotext/pkg/config"
	"github.com/yaklabco/annotext/pkg/exclude"
	"github.com/yaklabco/annotext/pkg/fsutil"
	"github.com/yaklabco/annotext/pkg/selection"
	"github.com/yaklabco/annotext/pkg/store"
	"github.com/yaklabco/annotext/pkg/workflow"
)

// ErrConfig marks configuration failures for the exit code.
var ErrConfig = errors.New("failed to load configuration")

// commandEnv is the resolved configuration and output setup of one
// command invocation.
type commandEnv struct {
	cfg     *config.Config
	logger  *log.Logger
	styles  *pretty.Styles
	color   bool
	out     io.Writer
	errOut  io.Writer
	workDir string
}

// loadEnv resolves configuration for cmd. cliCfg carries values set by
// command flags; nil means none.
func loadEnv(cmd *cobra.Command, flags *globalFlags, cliCfg *config.Config) (*commandEnv, error) {
	ctx := commandContext(cmd)
	logger := logging.Default()

	if cliCfg == nil {
		cliCfg = &config.Config{}
	}
	if cmd.Flags().Changed("format") {
		cliCfg.Format = config.OutputFormat(flags.format)
	}
	if flags.storePath != "" {
		cliCfg.Store.Path = flags.storePath
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: flags.configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, errors.Join(ErrConfig, err)
	}

	cfg := loadResult.Config
	if !flags.debug {
		logging.SetLevel(cfg.LogLevel)
	}

	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}
	if len(loadResult.LoadedFrom) > 0 {
		logger.Debug("loaded configuration from", logging.FieldFiles, loadResult.LoadedFrom)
	}

	logger.Debug("configuration loaded",
		logging.FieldFlavor, cfg.Flavor,
		logging.FieldStore, cfg.Store.Path,
		logging.FieldDryRun, cfg.DryRun,
		logging.FieldBackups, cfg.BackupsActive(),
	)

	color := pretty.IsColorEnabled(flags.color, cmd.OutOrStdout())
	return &commandEnv{
		cfg:     cfg,
		logger:  logger,
		styles:  pretty.NewStyles(color),
		color:   color,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		workDir: workDir,
	}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// documentPath returns the absolute path of the document argument.
func documentPath(arg string) (string, error) {
	path, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return path, nil
}

// storePath resolves the configured database path. Relative paths are
// taken from the document's directory.
func (e *commandEnv) storePath(docPath string) string {
	path := e.cfg.Store.Path
	if path == "" {
		path = config.DefaultStorePath
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(docPath), path)
}

func (e *commandEnv) openStore(docPath string) (*store.Store, error) {
	st, err := store.Open(e.storePath(docPath))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func (e *commandEnv) detector() *exclude.Detector {
	return exclude.New(e.cfg.Flavor, e.cfg.Exclude, exclude.WithLogger(e.logger))
}

// sessionOptions configures a session logging through the logger of ctx.
func (e *commandEnv) sessionOptions(ctx context.Context) []workflow.Option {
	logger := logging.FromContext(ctx)
	return []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithExclusions(exclude.New(e.cfg.Flavor, e.cfg.Exclude, exclude.WithLogger(logger)).Ranges),
		workflow.WithSelectionOptions(
			selection.WithTolerance(e.cfg.Validation.Tolerance),
			selection.WithMaxSentenceSpan(e.cfg.Validation.MaxSentenceSpan),
		),
	}
}

// document is an open document: its file on disk, its session, and the
// store backing it.
type document struct {
	path    string
	info    *fsutil.FileInfo
	store   *store.Store
	session *workflow.Session

	// synced is the commit that brought the store up to date with the
	// file on disk.
	synced workflow.Commit
}

func (d *document) Close() error {
	return d.store.Close()
}

// openDocument reads the file at arg, opens its session, and syncs the
// store with any change made on disk since the last command.
func (e *commandEnv) openDocument(ctx context.Context, arg string) (*document, error) {
	path, err := documentPath(arg)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithDocument(ctx, e.logger, path)
	logger := logging.FromContext(ctx)

	content, info, err := fsutil.ReadDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	st, err := e.openStore(path)
	if err != nil {
		return nil, err
	}

	sess, err := workflow.OpenOrImport(ctx, st, path, content, e.sessionOptions(ctx)...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	synced, err := sess.Sync(ctx, content)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("sync %s: %w", path, err)
	}
	if synced.Changed {
		logger.Info("document changed on disk",
			logging.FieldHistoryID, synced.History.ID,
			logging.FieldShifted, len(synced.Reconciliation.Shifted),
			logging.FieldFlagged, len(synced.Reconciliation.FlaggedForReview))
	}

	return &document{path: path, info: info, store: st, session: sess, synced: synced}, nil
}

// debounce returns the configured watch debounce delay.
func (e *commandEnv) debounce() time.Duration {
	return time.Duration(e.cfg.Watch.DebounceMs) * time.Millisecond
}
