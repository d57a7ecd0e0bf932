package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/annotext/internal/ui/pretty"
	"github.com/yaklabco/annotext/pkg/dom"
	"github.com/yaklabco/annotext/pkg/fsutil"
	"github.com/yaklabco/annotext/pkg/spaces"
	"github.com/yaklabco/annotext/pkg/textpos"
)

func newInspectCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the text spaces, links, and excluded blocks of a document",
		Long: `Show how annotext sees a document: the lengths of its raw, cleaned, and
rendered text, the markdown links it found, and the blocks left out of
cleaned text by the exclusion rules with the cleaned offset where each
was cut. Offsets are UTF-16 code units.

Inspect does not touch the annotation store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, flags, args[0])
		},
	}
}

type inspectJSON struct {
	Path           string       `json:"path"`
	RawLength      int          `json:"rawLength"`
	CleanedLength  int          `json:"cleanedLength"`
	RenderedLength int          `json:"renderedLength"`
	Paragraphs     int          `json:"paragraphs"`
	Links          []linkJSON   `json:"links"`
	Excluded       []excludeRow `json:"excluded"`
}

type linkJSON struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

type excludeRow struct {
	Kind     string `json:"kind"`
	Language string `json:"language,omitempty"`
	Detected bool   `json:"detected,omitempty"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Cleaned  int    `json:"cleaned"`
}

func runInspect(cmd *cobra.Command, flags *globalFlags, arg string) error {
	env, err := loadEnv(cmd, flags, nil)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	path, err := documentPath(arg)
	if err != nil {
		return err
	}
	content, _, err := fsutil.ReadDocument(ctx, path)
	if err != nil {
		return err
	}

	blocks, err := env.detector().Blocks(ctx, []byte(content))
	if err != nil {
		return err
	}
	ranges := make([]textpos.Range, 0, len(blocks))
	for _, b := range blocks {
		ranges = append(ranges, b.Range)
	}

	sp, err := spaces.Derive(content, ranges)
	if err != nil {
		return fmt.Errorf("derive spaces: %w", err)
	}
	paragraphs := countParagraphs(dom.Build(sp))

	if env.jsonOutput() {
		out := inspectJSON{
			Path:           arg,
			RawLength:      sp.Raw.Len(),
			CleanedLength:  sp.Cleaned.Len(),
			RenderedLength: sp.Rendered.Len(),
			Paragraphs:     paragraphs,
			Links:          []linkJSON{},
			Excluded:       []excludeRow{},
		}
		for _, link := range sp.Links {
			out.Links = append(out.Links, linkJSON{Start: link.Start, End: link.End, Text: link.DisplayText, URL: link.URL})
		}
		for _, b := range blocks {
			out.Excluded = append(out.Excluded, excludeRow{
				Kind: string(b.Kind), Language: b.Language, Detected: b.Detected,
				Start: b.Range.Start, End: b.Range.End, Cleaned: sp.RawToCleaned(b.Range.Start),
			})
		}
		return writeJSON(env.out, out)
	}

	fmt.Fprint(env.out, env.styles.FormatInspect(pretty.InspectReport{
		Path:       arg,
		Spaces:     sp,
		Blocks:     blocks,
		Paragraphs: paragraphs,
	}))
	return nil
}

// countParagraphs counts the paragraph elements of a document tree.
func countParagraphs(root *dom.Node) int {
	count := 0
	for _, child := range root.Children() {
		if child.Tag == "p" {
			count++
		}
	}
	return count
}
