package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yaklabco/annotext/pkg/config"
	"github.com/yaklabco/annotext/pkg/marks"
	"github.com/yaklabco/annotext/pkg/workflow"
)

// jsonOutput reports whether the command should print JSON.
func (e *commandEnv) jsonOutput() bool {
	return e.cfg.Format == config.FormatJSON
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

type markJSON struct {
	ID           int64  `json:"id"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	OriginalText string `json:"originalText"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
	Stale        bool   `json:"stale,omitempty"`
}

func toMarkJSON(m marks.Mark, stale bool) markJSON {
	return markJSON{
		ID:           m.ID,
		Start:        m.Start,
		End:          m.End,
		OriginalText: m.OriginalText,
		Status:       string(m.Status),
		Notes:        m.Notes,
		Stale:        stale,
	}
}

type selectionJSON struct {
	RenderedStart int      `json:"renderedStart"`
	RenderedEnd   int      `json:"renderedEnd"`
	CleanedStart  int      `json:"cleanedStart"`
	CleanedEnd    int      `json:"cleanedEnd"`
	RawStart      int      `json:"rawStart"`
	RawEnd        int      `json:"rawEnd"`
	Text          string   `json:"text"`
	RenderedText  string   `json:"renderedText"`
	Corrections   []string `json:"corrections"`
	Warnings      []string `json:"warnings"`
	Overlapping   []int64  `json:"overlapping"`
}

func toSelectionJSON(sel workflow.Selection) selectionJSON {
	return selectionJSON{
		RenderedStart: sel.Result.RenderedStart,
		RenderedEnd:   sel.Result.RenderedEnd,
		CleanedStart:  sel.Result.CleanedStart,
		CleanedEnd:    sel.Result.CleanedEnd,
		RawStart:      sel.Raw.Start,
		RawEnd:        sel.Raw.End,
		Text:          sel.Text,
		RenderedText:  sel.RenderedText,
		Corrections:   nonNil(sel.Result.Corrections),
		Warnings:      nonNil(sel.Result.Warnings),
		Overlapping:   nonNil(sel.Overlap.OverlappingIDs),
	}
}

type commitJSON struct {
	Changed   bool    `json:"changed"`
	HistoryID string  `json:"historyId,omitempty"`
	Shifted   []int64 `json:"shifted"`
	Flagged   []int64 `json:"flaggedForReview"`
}

func toCommitJSON(c workflow.Commit) commitJSON {
	out := commitJSON{
		Changed: c.Changed,
		Shifted: nonNil(c.Reconciliation.Shifted),
		Flagged: nonNil(c.Reconciliation.FlaggedForReview),
	}
	if c.Changed {
		out.HistoryID = c.History.ID.String()
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
