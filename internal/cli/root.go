// Package cli provides the Cobra command structure for annotext.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/internal/ui/pretty"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are the persistent flags shared by all subcommands.
type globalFlags struct {
	debug      bool
	configPath string
	color      string
	storePath  string
	format     string
}

// NewRootCommand creates the root annotext command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "annotext",
		Short: "Annotate and edit markdown documents without losing your marks",
		Long: `annotext keeps annotations ("marks") attached to the right characters of a
markdown document while you select, edit, and rewrite it.

Every selection is translated between the text a reader sees (links shown as
their display text) and the canonical markdown, checked for drift, and snapped
to safe boundaries. Every edit, whether made through annotext or in any other
editor, is diffed against the last known version so existing marks shift with
the text or are flagged for review when their text was touched.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flags.color, "color", pretty.ColorAuto,
		"colorize output: auto, always, never")
	rootCmd.PersistentFlags().StringVar(&flags.storePath, "store", "",
		"annotation database (default: .annotext.db next to the document)")
	rootCmd.PersistentFlags().StringVar(&flags.format, "format", "text", "output format: text, json")

	rootCmd.AddCommand(newInspectCommand(flags))
	rootCmd.AddCommand(newSelectCommand(flags))
	rootCmd.AddCommand(newMarkCommand(flags))
	rootCmd.AddCommand(newEditCommand(flags))
	rootCmd.AddCommand(newSyncCommand(flags))
	rootCmd.AddCommand(newWatchCommand(flags))
	rootCmd.AddCommand(newHistoryCommand(flags))
	rootCmd.AddCommand(newRestoreCommand(flags))
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newConfigCommand(flags))
	rootCmd.AddCommand(newVersionCommand(info))

	// Apply styled help formatting.
	helpFormatter := NewHelpFormatter(flags.color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
