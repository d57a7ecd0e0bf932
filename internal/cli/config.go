package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/configloader"
	"github.com/yaklabco/annotext/pkg/config"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
	}

	cmd.AddCommand(newConfigShowCommand(flags))
	cmd.AddCommand(newConfigEnvCommand())
	return cmd
}

func newConfigShowCommand(flags *globalFlags) *cobra.Command {
	var asTOML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Long: `Print the configuration after merging defaults, the user and project
config files, ANNOTEXT_* environment variables, and command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd, flags, nil)
			if err != nil {
				return err
			}

			enc := config.EncodingYAML
			if asTOML {
				enc = config.EncodingTOML
			}
			content, err := env.cfg.Encode(enc, "")
			if err != nil {
				return fmt.Errorf("serialize config: %w", err)
			}

			_, err = env.out.Write(content)
			return err
		},
	}

	cmd.Flags().BoolVar(&asTOML, "toml", false, "print TOML instead of YAML")
	return cmd
}

func newConfigEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables annotext reads",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, v := range configloader.ListEnvVars() {
				fmt.Fprintf(out, "  %-32s %-30s %s\n", v.Name, v.Key, v.Help)
			}
		},
	}
}
