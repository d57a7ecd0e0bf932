package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/pkg/fsutil"
)

func newRestoreCommand(flags *globalFlags) *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a document from its backup",
		Long: `Restore a document from the backup written before its last edit. Marks are
reconciled with the restored text the next time the document is opened.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, flags, nil)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			path, err := documentPath(args[0])
			if err != nil {
				return err
			}
			backups := fsutil.NewBackups(fsutil.BackupMode(env.cfg.Backups.Mode))

			restored, err := backups.Restore(ctx, path)
			if err != nil {
				return err
			}
			if !restored {
				fmt.Fprintln(env.out, env.styles.Dim.Render("no backup to restore"))
				return nil
			}

			if !keep {
				if _, err := backups.Remove(path); err != nil {
					return err
				}
			}

			env.logger.Debug("backup restored", logging.FieldPath, path,
				logging.FieldBackup, backups.Path(path))
			fmt.Fprintf(env.out, "%s %s\n", env.styles.Success.Render("restored"), env.styles.FilePath.Render(args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "keep the backup after restoring")
	return cmd
}
