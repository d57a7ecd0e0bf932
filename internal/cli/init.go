package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/configloader"
	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/pkg/config"
)

const configHeader = `# annotext configuration
# Values here override ~/.config/annotext and are overridden by ANNOTEXT_* variables.`

type initFlags struct {
	force  bool
	format string
	output string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Long: `Write .annotext.yml (or .annotext.toml) in the current directory with every
setting at its default, ready to edit.`,
		Example: `  annotext init
  annotext init --format toml
  annotext init --output docs/.annotext.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.ErrOrStderr(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().StringVar(&flags.format, "format", string(config.EncodingYAML), "file format: yaml or toml")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "file to write (default: .annotext.yml or .annotext.toml)")
	return cmd
}

func runInit(logOut io.Writer, flags *initFlags) error {
	enc := config.Encoding(flags.format)
	if enc != config.EncodingYAML && enc != config.EncodingTOML {
		return fmt.Errorf("invalid format %q: must be yaml or toml", flags.format)
	}

	path := flags.output
	if path == "" {
		path = configloader.ConfigFileName(enc)
	}

	logger := logging.NewInteractive(logOut)
	switch _, err := os.Stat(path); {
	case err == nil && !flags.force:
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	case err == nil:
		logger.Warn("overwriting existing file", logging.FieldPath, path)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("check %s: %w", path, err)
	}

	content, err := config.NewConfig().Encode(enc, configHeader)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("created configuration file", logging.FieldPath, path)
	logger.Info("run 'annotext config env' to list the environment overrides")
	return nil
}
