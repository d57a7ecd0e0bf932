// Package marks keeps annotation positions consistent with document edits.
//
// Marks are stored in cleaned space. After an edit, marks before the edited
// region are left alone, marks after it are shifted by the length change,
// and marks overlapping it are flagged for human review with their
// positions unchanged.
package marks

import (
	"errors"
	"fmt"

	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// Status is the review state of a mark.
type Status string

const (
	// StatusActive means the mark's text matched the document it was
	// created or last verified against.
	StatusActive Status = "active"

	// StatusNeedsReview means an edit touched the marked text.
	StatusNeedsReview Status = "needs_review"
)

// ReviewNote is the note attached to marks flagged by an overlapping edit.
const ReviewNote = "Text was edited in marked region"

// ErrEmptyMark is returned when creating a mark over an empty range.
var ErrEmptyMark = errors.New("mark range is empty")

// Mark is an annotation over a cleaned-space range.
type Mark struct {
	ID           int64
	Start        int
	End          int
	OriginalText string
	Status       Status
	Notes        string
}

// Range returns the [Start, End) span of the mark.
func (m Mark) Range() textpos.Range {
	return textpos.Range{Start: m.Start, End: m.End}
}

// New creates an active mark covering r in cleaned text.
func New(id int64, cleaned textpos.Text, r textpos.Range) (Mark, error) {
	if err := r.Validate(cleaned.Len()); err != nil {
		return Mark{}, fmt.Errorf("new mark: %w", err)
	}
	if r.IsEmpty() {
		return Mark{}, fmt.Errorf("new mark at %d: %w", r.Start, ErrEmptyMark)
	}
	return Mark{
		ID:           id,
		Start:        r.Start,
		End:          r.End,
		OriginalText: cleaned.Substring(r.Start, r.End),
		Status:       StatusActive,
	}, nil
}

// InvalidEditRegionError reports an edit region with negative or
// inverted bounds.
type InvalidEditRegionError struct {
	Start int
	End   int
}

func (e *InvalidEditRegionError) Error() string {
	return fmt.Sprintf("invalid edit region: start=%d, end=%d", e.Start, e.End)
}

// Result is the outcome of Update.
type Result struct {
	// Marks holds every input mark, updated, in input order.
	Marks []Mark

	// Shifted lists the IDs of marks moved by the edit.
	Shifted []int64

	// FlaggedForReview lists the IDs of marks overlapping the edit.
	FlaggedForReview []int64
}

// Update reconciles marks with an edit that replaced region.OriginalText
// by insertedText. The input slice is not modified.
//
// A mark ending at or before region.Start is unchanged. A mark starting at
// or after region.End is shifted by the length change. Any other mark is
// flagged for review and keeps its positions.
func Update(marks []Mark, region edit.Region, insertedText string) (Result, error) {
	if region.Start < 0 || region.End < region.Start {
		return Result{}, &InvalidEditRegionError{Start: region.Start, End: region.End}
	}

	delta := textpos.UTF16Len(insertedText) - textpos.UTF16Len(region.OriginalText)
	result := Result{Marks: make([]Mark, len(marks))}

	for i, mark := range marks {
		switch {
		case mark.End <= region.Start:
		case mark.Start >= region.End:
			mark.Start += delta
			mark.End += delta
			result.Shifted = append(result.Shifted, mark.ID)
		default:
			mark.Status = StatusNeedsReview
			mark.Notes = ReviewNote
			result.FlaggedForReview = append(result.FlaggedForReview, mark.ID)
		}
		result.Marks[i] = mark
	}

	return result, nil
}

// OverlapResult partitions marks by whether they overlap a pending edit.
type OverlapResult struct {
	Overlapping []Mark
	Safe        []Mark

	// OverlappingIDs lists the IDs of Overlapping in order.
	OverlappingIDs []int64
}

// HasOverlap reports whether any mark overlaps the edit.
func (r OverlapResult) HasOverlap() bool {
	return len(r.Overlapping) > 0
}

// DetectOverlap reports which marks an edit of editRange would touch.
// Empty edits and empty marks never overlap; touching boundaries do not
// count.
func DetectOverlap(editRange textpos.Range, marks []Mark) OverlapResult {
	var result OverlapResult
	for _, mark := range marks {
		if mark.Range().Overlaps(editRange) {
			result.Overlapping = append(result.Overlapping, mark)
			result.OverlappingIDs = append(result.OverlappingIDs, mark.ID)
		} else {
			result.Safe = append(result.Safe, mark)
		}
	}
	return result
}

// Verify returns the IDs of active marks whose original text no longer
// matches the cleaned text at their positions.
func Verify(marks []Mark, cleaned textpos.Text) []int64 {
	var stale []int64
	for _, mark := range marks {
		if mark.Status != StatusActive {
			continue
		}
		if mark.Range().Validate(cleaned.Len()) != nil ||
			cleaned.Substring(mark.Start, mark.End) != mark.OriginalText {
			stale = append(stale, mark.ID)
		}
	}
	return stale
}
