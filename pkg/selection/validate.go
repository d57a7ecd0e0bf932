// Package selection validates user selections across text spaces and
// corrects their boundaries.
//
// A selection arrives as rendered-space offsets (from the DOM) plus the
// cleaned-space offsets derived from them. Validate checks that the two
// agree, that neither edge splits a markdown link, and, when something is
// off, expands the selection to full links, then words, then sentences.
// Problems are reported as warnings; Validate never fails.
package selection

import (
	"fmt"

	"github.com/yaklabco/annotext/pkg/linktok"
	"github.com/yaklabco/annotext/pkg/spaces"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// Snapshot describes one selection gesture before correction.
type Snapshot struct {
	DOMStart      int
	DOMEnd        int
	RenderedStart int
	RenderedEnd   int
	CleanedStart  int
	CleanedEnd    int
	SelectedText  string
}

// NewSnapshot builds a snapshot from DOM offsets over a document's
// rendered text. DOM offsets are rendered offsets; cleaned offsets come
// from the document's converter.
func NewSnapshot(domStart, domEnd int, sp *spaces.Spaces) Snapshot {
	start := clampPos(domStart, sp.Rendered)
	end := clampPos(domEnd, sp.Rendered)
	return Snapshot{
		DOMStart:      domStart,
		DOMEnd:        domEnd,
		RenderedStart: start,
		RenderedEnd:   end,
		CleanedStart:  sp.RenderedToCleaned(start),
		CleanedEnd:    sp.RenderedToCleaned(end),
		SelectedText:  sp.Rendered.Substring(start, end),
	}
}

// RoundTrip records the cross-space conversions of the original edges.
type RoundTrip struct {
	CleanedToRenderedStart int
	CleanedToRenderedEnd   int
	RenderedToCleanedStart int
	RenderedToCleanedEnd   int
	StartDrift             int
	EndDrift               int
}

// Boundaries records where the original edges fall.
type Boundaries struct {
	StartOnWordBoundary bool
	EndOnWordBoundary   bool
	StartInLink         bool
	EndInLink           bool
}

// DebugInfo is the diagnostic context of a validation.
type DebugInfo struct {
	Original   Snapshot
	RoundTrip  RoundTrip
	Boundaries Boundaries
}

// Result holds the corrected selection and what happened to it.
type Result struct {
	RenderedStart int
	RenderedEnd   int
	CleanedStart  int
	CleanedEnd    int

	Warnings    []string
	Corrections []string
	Debug       DebugInfo
}

// Cleaned returns the corrected cleaned-space range.
func (r Result) Cleaned() textpos.Range {
	return textpos.Range{Start: r.CleanedStart, End: r.CleanedEnd}
}

// Rendered returns the corrected rendered-space range.
func (r Result) Rendered() textpos.Range {
	return textpos.Range{Start: r.RenderedStart, End: r.RenderedEnd}
}

// Corrected reports whether any correction was applied.
func (r Result) Corrected() bool {
	return len(r.Corrections) > 0
}

// Validate checks snapshot against cleaned and rendered text using the
// given converters and returns corrected positions. Inputs are never
// modified.
//
// Correction runs only when round-trip drift exceeds the tolerance or an
// edge splits a link. It expands to full links, then to word boundaries,
// then, if drift is still present, to sentence boundaries when the
// result stays under the maximum span. A final pass re-snaps edges that
// landed inside a link.
//
// Word expansion sets cleaned positions from the rendered ones, so drift
// remains afterwards only when toRendered does not invert toCleaned within
// the tolerance. With the converters from package spaces, which round-trip
// every rendered position, the sentence step never fires; it exists for
// inconsistent converters such as ones built from a stale document.
func Validate(
	snapshot Snapshot,
	cleaned, rendered textpos.Text,
	toCleaned, toRendered spaces.ConvertFunc,
	opts ...Option,
) Result {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	tol := cfg.tolerance

	result := Result{
		RenderedStart: snapshot.RenderedStart,
		RenderedEnd:   snapshot.RenderedEnd,
		CleanedStart:  snapshot.CleanedStart,
		CleanedEnd:    snapshot.CleanedEnd,
	}

	logger.Debug("validating selection",
		"rendered", fmt.Sprintf("%d-%d", snapshot.RenderedStart, snapshot.RenderedEnd),
		"cleaned", fmt.Sprintf("%d-%d", snapshot.CleanedStart, snapshot.CleanedEnd),
		"selected_len", textpos.UTF16Len(snapshot.SelectedText))

	// Cleaned -> rendered must land back on the selection.
	roundTrip := RoundTrip{
		CleanedToRenderedStart: toRendered(snapshot.CleanedStart, cleaned),
		CleanedToRenderedEnd:   toRendered(snapshot.CleanedEnd, cleaned),
	}
	roundTrip.StartDrift = abs(roundTrip.CleanedToRenderedStart - snapshot.RenderedStart)
	roundTrip.EndDrift = abs(roundTrip.CleanedToRenderedEnd - snapshot.RenderedEnd)
	drifted := roundTrip.StartDrift > tol || roundTrip.EndDrift > tol
	if drifted {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Round-trip drift detected: start=%d, end=%d (tolerance=%d)",
			roundTrip.StartDrift, roundTrip.EndDrift, tol))
	}

	// Cleaned -> rendered -> cleaned.
	roundTrip.RenderedToCleanedStart = toCleaned(roundTrip.CleanedToRenderedStart, cleaned)
	roundTrip.RenderedToCleanedEnd = toCleaned(roundTrip.CleanedToRenderedEnd, cleaned)
	cleanedStartDrift := abs(roundTrip.RenderedToCleanedStart - snapshot.CleanedStart)
	cleanedEndDrift := abs(roundTrip.RenderedToCleanedEnd - snapshot.CleanedEnd)
	if cleanedStartDrift > tol || cleanedEndDrift > tol {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Double round-trip drift detected: cleaned start=%d, end=%d",
			cleanedStartDrift, cleanedEndDrift))
	}

	logger.Debug("round trip",
		"start_drift", roundTrip.StartDrift, "end_drift", roundTrip.EndDrift,
		"cleaned_start_drift", cleanedStartDrift, "cleaned_end_drift", cleanedEndDrift)

	links := linktok.FindAll(cleaned)
	_, startInLink := linktok.LinkAt(links, snapshot.CleanedStart)
	_, endInLink := linktok.LinkAt(links, snapshot.CleanedEnd)
	boundaries := Boundaries{
		StartOnWordBoundary: onWordBoundary(rendered, snapshot.RenderedStart-1),
		EndOnWordBoundary:   onWordBoundary(rendered, snapshot.RenderedEnd),
		StartInLink:         startInLink,
		EndInLink:           endInLink,
	}
	result.Debug = DebugInfo{Original: snapshot, RoundTrip: roundTrip, Boundaries: boundaries}

	logger.Debug("boundaries",
		"start_word", boundaries.StartOnWordBoundary, "end_word", boundaries.EndOnWordBoundary,
		"start_in_link", startInLink, "end_in_link", endInLink)

	if drifted || startInLink || endInLink {
		correct(&result, cleaned, rendered, links, toCleaned, toRendered, cfg)
	}

	// Final verification of the corrected pair.
	finalStart := abs(toRendered(result.CleanedStart, cleaned) - result.RenderedStart)
	finalEnd := abs(toRendered(result.CleanedEnd, cleaned) - result.RenderedEnd)
	if finalStart > tol || finalEnd > tol {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Final positions still have drift: start=%d, end=%d", finalStart, finalEnd))
	}

	logger.Debug("selection validated",
		"rendered", result.Rendered().String(), "cleaned", result.Cleaned().String(),
		"corrections", len(result.Corrections), "warnings", len(result.Warnings))

	return result
}

// correct applies the expansion steps in order, each starting from the
// previous step's output.
func correct(
	result *Result,
	cleaned, rendered textpos.Text,
	links []linktok.Link,
	toCleaned, toRendered spaces.ConvertFunc,
	cfg options,
) {
	setCleaned := func(start, end int) {
		result.CleanedStart, result.CleanedEnd = start, end
		result.RenderedStart = toRendered(start, cleaned)
		result.RenderedEnd = toRendered(end, cleaned)
	}
	setRendered := func(start, end int) {
		result.RenderedStart, result.RenderedEnd = start, end
		result.CleanedStart = toCleaned(start, cleaned)
		result.CleanedEnd = toCleaned(end, cleaned)
	}
	residualDrift := func() bool {
		return abs(toRendered(result.CleanedStart, cleaned)-result.RenderedStart) > cfg.tolerance ||
			abs(toRendered(result.CleanedEnd, cleaned)-result.RenderedEnd) > cfg.tolerance
	}

	if start, end, ok := expandToLinks(result.CleanedStart, result.CleanedEnd, links); ok {
		result.Corrections = append(result.Corrections, fmt.Sprintf(
			"Expanded to include full markdown links: cleaned %d-%d → %d-%d",
			result.CleanedStart, result.CleanedEnd, start, end))
		setCleaned(start, end)
	}

	if start, end, ok := expandToWords(result.RenderedStart, result.RenderedEnd, rendered); ok {
		result.Corrections = append(result.Corrections, fmt.Sprintf(
			"Expanded to word boundaries: rendered %d-%d → %d-%d",
			result.RenderedStart, result.RenderedEnd, start, end))
		setRendered(start, end)
	}

	if residualDrift() {
		start, end, ok := expandToSentences(result.RenderedStart, result.RenderedEnd, rendered)
		switch {
		case !ok:
		case end-start >= cfg.maxSentenceSpan:
			cfg.logger.Debug("sentence expansion skipped", "span", end-start, "max", cfg.maxSentenceSpan)
		default:
			result.Corrections = append(result.Corrections, fmt.Sprintf(
				"Expanded to sentence boundaries: rendered %d-%d → %d-%d",
				result.RenderedStart, result.RenderedEnd, start, end))
			setRendered(start, end)
		}
	}

	if start, end, ok := expandToLinks(result.CleanedStart, result.CleanedEnd, links); ok {
		result.Corrections = append(result.Corrections, fmt.Sprintf(
			"Re-snapped edges to full markdown links: cleaned %d-%d → %d-%d",
			result.CleanedStart, result.CleanedEnd, start, end))
		setCleaned(start, end)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
