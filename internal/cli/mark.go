package cli

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/internal/ui/pretty"
)

func newMarkCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Add, list, resolve, and delete marks",
		Long: `Marks are annotations over a range of a document's markdown. They move
with the text as the document is edited and are flagged for review when the
text they cover changes.`,
	}

	cmd.AddCommand(newMarkAddCommand(flags))
	cmd.AddCommand(newMarkListCommand(flags))
	cmd.AddCommand(newMarkResolveCommand(flags))
	cmd.AddCommand(newMarkDeleteCommand(flags))
	return cmd
}

func newMarkAddCommand(flags *globalFlags) *cobra.Command {
	var rng rangeFlags

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Mark a selection of rendered text",
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

			sel, err := env.selectRange(doc, &rng)
			if err != nil {
				return err
			}
			for _, warning := range sel.Result.Warnings {
				env.logger.Warn(warning)
			}

			mark, err := doc.session.AddMark(ctx, sel.Result.Cleaned())
			if err != nil {
				return err
			}
			env.logger.Info("mark added", logging.FieldMarkID, mark.ID,
				logging.FieldRange, mark.Range().String())

			if env.jsonOutput() {
				return writeJSON(env.out, toMarkJSON(mark, false))
			}
			fmt.Fprintf(env.out, "%s #%d %s %s\n",
				env.styles.Success.Render("marked"),
				mark.ID,
				env.styles.Location.Render(mark.Range().String()),
				env.styles.Quote.Render(strconv.Quote(mark.OriginalText)))
			return nil
		},
	}

	rng.register(cmd)
	return cmd
}

func newMarkListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <file>",
		Short: "List the marks of a document",
		Long: `List the marks of a document in position order. Marks whose text no longer
matches the document are shown as stale.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd, flags, nil)
			if err != nil {
				return err
			}
			doc, err := env.openDocument(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			list := doc.session.Marks()
			stale := doc.session.Stale()

			if env.jsonOutput() {
				out := make([]markJSON, 0, len(list))
				for _, mark := range list {
					out = append(out, toMarkJSON(mark, slices.Contains(stale, mark.ID)))
				}
				return writeJSON(env.out, out)
			}

			table := pretty.NewTableFormatter(env.styles, env.color, terminalWidth())
			fmt.Fprint(env.out, table.FormatMarks(list, stale))
			return nil
		},
	}
}

func newMarkDeleteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file> <id>...",
		Short: "Delete marks by ID",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseMarkIDs(args[1:])
			if err != nil {
				return err
			}

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

			deleted, err := doc.store.DeleteMarks(ctx, doc.path, ids)
			if err != nil {
				return err
			}
			env.logger.Debug("marks deleted", logging.FieldMarks, ids)

			fmt.Fprintf(env.out, "deleted %d %s\n", deleted, pluralMarks(deleted))
			return nil
		},
	}
}

func newMarkResolveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <file> <id>...",
		Short: "Accept reviewed marks",
		Long: `Set marks flagged for review back to active and clear their review notes.
Use it after checking that a mark still covers the right text.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseMarkIDs(args[1:])
			if err != nil {
				return err
			}

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

			resolved, err := doc.session.ResolveMarks(ctx, ids)
			if err != nil {
				return err
			}
			env.logger.Debug("marks resolved", logging.FieldMarks, ids)

			if env.jsonOutput() {
				out := make([]markJSON, 0, len(resolved))
				for _, mark := range resolved {
					out = append(out, toMarkJSON(mark, false))
				}
				return writeJSON(env.out, out)
			}
			n := int64(len(resolved))
			fmt.Fprintf(env.out, "resolved %d %s\n", n, pluralMarks(n))
			return nil
		},
	}
}

func parseMarkIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mark ID %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func pluralMarks(n int64) string {
	if n == 1 {
		return "mark"
	}
	return "marks"
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
