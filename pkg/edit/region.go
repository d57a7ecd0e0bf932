// Package edit finds and applies text edits in a single text space.
//
// Detect computes the minimal region that differs between two versions of
// a document. TextEdit and its helpers apply validated replacements, and
// GenerateDiff renders a line diff of a change for display.
package edit

import (
	"fmt"

	"github.com/yaklabco/annotext/pkg/textpos"
)

// Region is the minimal span that differs between two document versions.
// Start and End are offsets into the previous version.
type Region struct {
	Start int
	End   int

	// OriginalText is previous[Start:End].
	OriginalText string

	// InsertedText is the text that replaced OriginalText.
	InsertedText string
}

// Range returns the [Start, End) span of the region.
func (r Region) Range() textpos.Range {
	return textpos.Range{Start: r.Start, End: r.End}
}

// LengthDelta is the change in document length caused by the edit.
func (r Region) LengthDelta() int {
	return textpos.UTF16Len(r.InsertedText) - textpos.UTF16Len(r.OriginalText)
}

// IsEmpty reports whether the two versions were identical.
func (r Region) IsEmpty() bool {
	return r.Start == r.End && r.InsertedText == ""
}

func (r Region) String() string {
	return fmt.Sprintf("%d-%d %q -> %q", r.Start, r.End, r.OriginalText, r.InsertedText)
}

// Detect returns the region where previous and next differ, found by
// trimming their common prefix and then their common suffix. Suffix
// trimming never moves back past the prefix, so identical inputs give an
// empty region at the end of the text.
func Detect(previous, next textpos.Text) Region {
	start := 0
	for start < len(previous) && start < len(next) && previous[start] == next[start] {
		start++
	}

	// The shared prefix may end inside a surrogate pair in either text.
	start = min(previous.AdjustToBoundary(start), next.AdjustToBoundary(start))

	oldEnd, newEnd := len(previous), len(next)
	for oldEnd > start && newEnd > start && previous[oldEnd-1] == next[newEnd-1] {
		oldEnd--
		newEnd--
	}
	for oldEnd < len(previous) && newEnd < len(next) &&
		(previous.AdjustToBoundary(oldEnd) != oldEnd || next.AdjustToBoundary(newEnd) != newEnd) {
		oldEnd++
		newEnd++
	}

	return Region{
		Start:        start,
		End:          oldEnd,
		OriginalText: previous[start:oldEnd].String(),
		InsertedText: next[start:newEnd].String(),
	}
}

// DetectStrings is Detect for Go strings.
func DetectStrings(previous, next string) Region {
	return Detect(textpos.FromString(previous), textpos.FromString(next))
}
