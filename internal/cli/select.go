package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/logging"
	"github.com/yaklabco/annotext/pkg/dom"
	"github.com/yaklabco/annotext/pkg/textpos"
	"github.com/yaklabco/annotext/pkg/workflow"
)

var (
	// ErrNoRange is returned when a command needs a selection and got none.
	ErrNoRange = errors.New("a selection needs --match or both --start and --end")

	// ErrNoMatch is returned when --match does not occur in the rendered text.
	ErrNoMatch = errors.New("text not found in document")
)

// rangeFlags select a range of rendered text, either by offsets or by the
// first occurrence of a phrase.
type rangeFlags struct {
	start int
	end   int
	match string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.start, "start", -1, "start offset in rendered text (UTF-16 code units)")
	cmd.Flags().IntVar(&f.end, "end", -1, "end offset in rendered text (UTF-16 code units)")
	cmd.Flags().StringVar(&f.match, "match", "", "select the first occurrence of this rendered text")
}

// resolve returns the rendered offsets the flags describe.
func (f *rangeFlags) resolve(rendered textpos.Text) (int, int, error) {
	if f.match != "" {
		i := strings.Index(rendered.String(), f.match)
		if i < 0 {
			return 0, 0, fmt.Errorf("%w: %q", ErrNoMatch, f.match)
		}
		start := textpos.UTF16Len(rendered.String()[:i])
		return start, start + textpos.UTF16Len(f.match), nil
	}
	if f.start < 0 || f.end < 0 {
		return 0, 0, ErrNoRange
	}
	return f.start, f.end, nil
}

// selectRange resolves the flags against the reading view of doc. The
// offsets are placed as a selection in the document tree and mapped back,
// the way a selection made in a viewer arrives.
func (e *commandEnv) selectRange(doc *document, flags *rangeFlags) (workflow.Selection, error) {
	sess := doc.session
	start, end, err := flags.resolve(sess.Spaces().Rendered)
	if err != nil {
		return workflow.Selection{}, err
	}

	root := sess.DOM()
	mapper := dom.NewMapper(dom.WithLogger(e.logger))

	var sel dom.Selection
	mapper.SetSelection(root, &sel, start, end)

	result, err := sess.SelectDOM(root, &sel, mapper)
	if err != nil {
		return workflow.Selection{}, err
	}

	e.logger.Debug("selection validated",
		logging.FieldStart, result.Result.CleanedStart,
		logging.FieldEnd, result.Result.CleanedEnd,
		logging.FieldCleaned, result.Text)
	return result, nil
}

func newSelectCommand(flags *globalFlags) *cobra.Command {
	var rng rangeFlags

	cmd := &cobra.Command{
		Use:   "select <file>",
		Short: "Validate a selection and show its canonical range",
		Long: `Validate a selection of rendered text and show the range of markdown it
covers. The selection is checked for drift between the text spaces, widened
to whole words and links where needed, and compared with existing marks.

Offsets are UTF-16 code units of the rendered text, as reported by inspect.`,
		Example: `  annotext select notes.md --start 10 --end 24
  annotext select notes.md --match "the quick brown fox"`,
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

			sel, err := env.selectRange(doc, &rng)
			if err != nil {
				return err
			}

			if env.jsonOutput() {
				return writeJSON(env.out, toSelectionJSON(sel))
			}
			fmt.Fprint(env.out, env.styles.FormatSelection(sel))
			return nil
		},
	}

	rng.register(cmd)
	return cmd
}
