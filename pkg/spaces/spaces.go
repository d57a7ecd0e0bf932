// Package spaces derives the raw, cleaned, and rendered text spaces of a
// document and converts positions between them.
//
// Raw text is the persisted document. Cleaned text is raw text with the
// caller's excluded ranges cut out; it still contains markdown link
// syntax. Rendered text is cleaned text with every link replaced by its
// display text. Marks are stored in cleaned space; selections arrive in
// rendered space.
package spaces

import (
	"fmt"

	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/linktok"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// Spaces holds the three text representations of one document version.
// A Spaces value is immutable; edits produce a new value.
type Spaces struct {
	// Raw is the persisted document.
	Raw textpos.Text

	// Cleaned is Raw without the excluded ranges.
	Cleaned textpos.Text

	// Rendered is Cleaned with link syntax stripped.
	Rendered textpos.Text

	// Excluded holds the sorted, merged excluded ranges in raw space.
	Excluded []textpos.Range

	// Links holds the link spans of Cleaned.
	Links []linktok.Link

	converter *Converter

	// cuts[k] is the cleaned position where Excluded[k] was removed.
	cuts []int
}

// Derive builds the text spaces for raw with the given excluded ranges.
// Ranges are expressed in raw space; they may be unsorted and may overlap,
// but each must lie within raw.
func Derive(raw string, excluded []textpos.Range) (*Spaces, error) {
	return DeriveText(textpos.FromString(raw), excluded)
}

// DeriveText is Derive for text that is already UTF-16 encoded.
func DeriveText(raw textpos.Text, excluded []textpos.Range) (*Spaces, error) {
	for _, r := range excluded {
		if err := r.Validate(len(raw)); err != nil {
			return nil, fmt.Errorf("excluded range: %w", err)
		}
	}

	normalized := textpos.Normalize(excluded)

	cleaned := make(textpos.Text, 0, len(raw))
	cuts := make([]int, 0, len(normalized))
	prev := 0
	for _, r := range normalized {
		cleaned = append(cleaned, raw[prev:r.Start]...)
		cuts = append(cuts, len(cleaned))
		prev = r.End
	}
	cleaned = append(cleaned, raw[prev:]...)

	converter := NewConverter(cleaned)

	return &Spaces{
		Raw:       raw,
		Cleaned:   cleaned,
		Rendered:  linktok.StripLinks(cleaned, converter.Links()),
		Excluded:  normalized,
		Links:     converter.Links(),
		converter: converter,
		cuts:      cuts,
	}, nil
}

// Converter returns the rendered/cleaned converter for this version.
func (s *Spaces) Converter() *Converter {
	return s.converter
}

// RenderedToCleaned maps a rendered position into cleaned space.
func (s *Spaces) RenderedToCleaned(pos int) int {
	return s.converter.ToCleaned(pos)
}

// CleanedToRendered maps a cleaned position into rendered space.
func (s *Spaces) CleanedToRendered(pos int) int {
	return s.converter.ToRendered(pos)
}

// RawToCleaned maps a raw position into cleaned space. Positions inside
// an excluded range map to the point where the range was cut.
func (s *Spaces) RawToCleaned(pos int) int {
	removed := 0
	for _, r := range s.Excluded {
		if pos <= r.Start {
			break
		}
		if pos < r.End {
			return r.Start - removed
		}
		removed += r.Len()
	}
	return pos - removed
}

// CleanedToRaw maps a cleaned position into raw space. A position at a
// cut point maps past the excluded range.
func (s *Spaces) CleanedToRaw(pos int) int {
	added := 0
	for k, r := range s.Excluded {
		if pos < s.cuts[k] {
			break
		}
		added += r.Len()
	}
	return pos + added
}

// ReplaceCleaned replaces the cleaned-space range r with text and returns
// the spaces of the resulting document. Excluded regions are carried over
// unchanged. Regions cut inside the replaced range move after the new
// text.
func (s *Spaces) ReplaceCleaned(r textpos.Range, text string) (*Spaces, error) {
	return s.ApplyCleaned([]edit.TextEdit{{Start: r.Start, End: r.End, NewText: text}})
}

// ApplyCleaned applies non-overlapping cleaned-space edits and returns
// the spaces of the resulting document. Invalid or overlapping edits are
// rejected with *edit.ValidationError or *edit.ConflictError.
func (s *Spaces) ApplyCleaned(edits []edit.TextEdit) (*Spaces, error) {
	sorted, err := edit.PrepareEdits(edits, len(s.Cleaned))
	if err != nil {
		return nil, fmt.Errorf("apply cleaned edits: %w", err)
	}
	newCleaned := edit.Apply(s.Cleaned, sorted)

	raw := make(textpos.Text, 0, len(newCleaned)+len(s.Raw)-len(s.Cleaned))
	excluded := make([]textpos.Range, 0, len(s.Excluded))
	prev := 0
	for k, ex := range s.Excluded {
		cut := movedCut(s.cuts[k], sorted)

		raw = append(raw, newCleaned[prev:cut]...)
		start := len(raw)
		raw = append(raw, s.Raw[ex.Start:ex.End]...)
		excluded = append(excluded, textpos.Range{Start: start, End: len(raw)})
		prev = cut
	}
	raw = append(raw, newCleaned[prev:]...)

	return DeriveText(raw, excluded)
}

// movedCut returns where the cut point lands after the sorted edits. A
// cut at an edit's start stays before the new text; a cut inside a
// replaced range moves after it.
func movedCut(cut int, sorted []edit.TextEdit) int {
	shift := 0
	for _, e := range sorted {
		if cut <= e.Start {
			break
		}
		inserted := textpos.UTF16Len(e.NewText)
		if cut < e.End {
			return e.Start + shift + inserted
		}
		shift += inserted - (e.End - e.Start)
	}
	return cut + shift
}
