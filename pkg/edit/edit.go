package edit

import (
	"fmt"
	"sort"

	"github.com/yaklabco/annotext/pkg/textpos"
)

// TextEdit represents a single replacement in a text.
type TextEdit struct {
	// Start is the offset where the edit begins (inclusive).
	Start int

	// End is the offset where the edit ends (exclusive).
	End int

	// NewText is the replacement text.
	NewText string
}

// Range returns the [Start, End) span replaced by the edit.
func (e TextEdit) Range() textpos.Range {
	return textpos.Range{Start: e.Start, End: e.End}
}

// ValidationError describes an invalid edit. It unwraps to the
// *textpos.RangeError for the edit's range.
type ValidationError struct {
	Edit    TextEdit
	Length  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid edit [%d:%d]: %s", e.Edit.Start, e.Edit.End, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return &textpos.RangeError{Range: e.Edit.Range(), Length: e.Length, Message: e.Message}
}

// ConflictError describes overlapping edits.
type ConflictError struct {
	First  TextEdit
	Second TextEdit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping edits: [%d:%d] and [%d:%d]",
		e.First.Start, e.First.End, e.Second.Start, e.Second.End)
}

// Replace returns text with [start, end) replaced by newText.
// Out-of-range or inverted positions are rejected rather than clamped.
func Replace(text textpos.Text, start, end int, newText string) (textpos.Text, error) {
	e := TextEdit{Start: start, End: end, NewText: newText}
	if err := ValidateEdits([]TextEdit{e}, len(text)); err != nil {
		return nil, err
	}
	return Apply(text, []TextEdit{e}), nil
}

// ValidateEdits checks that all edits have valid ranges for a text of the
// given length and returns the first problem found.
func ValidateEdits(edits []TextEdit, length int) error {
	for _, e := range edits {
		switch {
		case e.Start < 0:
			return &ValidationError{Edit: e, Length: length, Message: "start offset is negative"}
		case e.End < e.Start:
			return &ValidationError{Edit: e, Length: length, Message: "end offset is before start offset"}
		case e.End > length:
			return &ValidationError{
				Edit:    e,
				Length:  length,
				Message: fmt.Sprintf("end offset %d exceeds text length %d", e.End, length),
			}
		}
	}
	return nil
}

// SortEdits sorts edits by start offset, then by end offset.
func SortEdits(edits []TextEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].End < edits[j].End
	})
}

// PrepareEdits validates edits, returns a sorted copy, and rejects
// overlapping edits with a *ConflictError.
func PrepareEdits(edits []TextEdit, length int) ([]TextEdit, error) {
	if len(edits) == 0 {
		return nil, nil
	}
	if err := ValidateEdits(edits, length); err != nil {
		return nil, err
	}

	sorted := make([]TextEdit, len(edits))
	copy(sorted, edits)
	SortEdits(sorted)

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return nil, &ConflictError{First: sorted[i-1], Second: sorted[i]}
		}
	}
	return sorted, nil
}

// Apply applies sorted, validated edits to text and returns a new Text.
// Use PrepareEdits first.
func Apply(text textpos.Text, edits []TextEdit) textpos.Text {
	if len(edits) == 0 {
		return text
	}

	out := make(textpos.Text, 0, len(text))
	cursor := 0
	for _, e := range edits {
		out = append(out, text[cursor:e.Start]...)
		out = append(out, textpos.FromString(e.NewText)...)
		cursor = e.End
	}
	return append(out, text[cursor:]...)
}
