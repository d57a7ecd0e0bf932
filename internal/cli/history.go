package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/ui/pretty"
	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/store"
)

type historyJSON struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Before    string `json:"before"`
	After     string `json:"after"`
}

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "history <file>",
		Short: "List the recorded changes of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, flags, nil)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			doc, err := env.openDocument(ctx, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			records, err := doc.store.ListHistory(ctx, doc.path)
			if err != nil {
				return err
			}

			if env.jsonOutput() {
				out := make([]historyJSON, 0, len(records))
				for _, rec := range records {
					out = append(out, historyJSON{
						ID:        rec.ID,
						CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
						Before:    rec.Before,
						After:     rec.After,
					})
				}
				return writeJSON(env.out, out)
			}

			table := pretty.NewTableFormatter(env.styles, env.color, terminalWidth())
			if !showDiff {
				fmt.Fprint(env.out, table.FormatHistory(records))
				return nil
			}
			for _, rec := range records {
				fmt.Fprint(env.out, table.FormatHistory([]store.HistoryRecord{rec}))
				fmt.Fprint(env.out, env.styles.FormatDiff(edit.GenerateDiff(args[0], rec.Before, rec.After)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDiff, "diff", false, "show the diff of every change")
	return cmd
}
