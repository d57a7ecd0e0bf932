package textpos

import (
	"fmt"
	"sort"
)

// Space identifies which text representation a position belongs to.
type Space uint8

const (
	// SpaceRaw is the persisted document including excluded regions.
	SpaceRaw Space = iota

	// SpaceCleaned is the raw document with excluded regions removed.
	// Markdown link syntax is intact.
	SpaceCleaned

	// SpaceRendered is the cleaned document with link syntax replaced by
	// link display text.
	SpaceRendered

	// SpaceDOM is a node plus in-node offset over rendered content.
	SpaceDOM
)

// String returns the lowercase name of the space.
func (s Space) String() string {
	switch s {
	case SpaceRaw:
		return "raw"
	case SpaceCleaned:
		return "cleaned"
	case SpaceRendered:
		return "rendered"
	case SpaceDOM:
		return "dom"
	default:
		return "unknown"
	}
}

// Range is a half-open [Start, End) span of UTF-16 code units.
type Range struct {
	// Start is the index where the range begins (inclusive).
	Start int

	// End is the index where the range ends (exclusive).
	End int
}

// Len returns the length of the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains returns true if the given offset is within this range.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Overlaps reports whether two ranges share at least one position.
// Ranges that only touch, and empty ranges, never overlap.
func (r Range) Overlaps(other Range) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Start < other.End && r.End > other.Start
}

// String formats the range as "start-end".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// RangeError describes a range that cannot be applied to a text.
type RangeError struct {
	Range   Range
	Length  int
	Message string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range [%d:%d] for length %d: %s",
		e.Range.Start, e.Range.End, e.Length, e.Message)
}

// Validate checks that r is a well-formed range within a text of the given length.
func (r Range) Validate(length int) error {
	if r.Start < 0 {
		return &RangeError{Range: r, Length: length, Message: "start is negative"}
	}
	if r.End < r.Start {
		return &RangeError{Range: r, Length: length, Message: "end is before start"}
	}
	if r.End > length {
		return &RangeError{Range: r, Length: length, Message: "end exceeds text length"}
	}
	return nil
}

// Normalize returns a sorted copy of ranges with overlapping or touching
// ranges merged and empty ranges dropped.
func Normalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.IsEmpty() {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := make([]Range, 0, len(sorted))
	for _, r := range sorted {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End {
			merged[n-1].End = max(merged[n-1].End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
