package spaces

import (
	"github.com/yaklabco/annotext/pkg/linktok"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// ConvertFunc converts a position between rendered and cleaned space for
// the given cleaned text. RenderedToCleaned and CleanedToRendered have
// this signature so they can be injected into the selection validator.
type ConvertFunc func(pos int, cleaned textpos.Text) int

// RenderedToCleaned maps a rendered-space position into cleaned space.
//
// Positions strictly inside a link's display text map to the same
// interior offset. A position at a link's rendered start maps to its
// "[" and a position at or after its rendered end is shifted past ")".
func RenderedToCleaned(renderedPos int, cleaned textpos.Text) int {
	return NewConverter(cleaned).ToCleaned(renderedPos)
}

// CleanedToRendered maps a cleaned-space position into rendered space.
//
// Links entirely before the position subtract their syntax cost. Inside
// a link the position maps into the display text, and positions in the
// "](url)" tail clamp to the end of the display text.
func CleanedToRendered(cleanedPos int, cleaned textpos.Text) int {
	return NewConverter(cleaned).ToRendered(cleanedPos)
}

// Converter converts positions for one cleaned text, reusing its link
// spans across calls.
type Converter struct {
	cleaned textpos.Text
	links   []linktok.Link
}

// NewConverter tokenizes cleaned once and returns a converter for it.
func NewConverter(cleaned textpos.Text) *Converter {
	return &Converter{cleaned: cleaned, links: linktok.FindAll(cleaned)}
}

// Links returns the link spans of the cleaned text.
func (c *Converter) Links() []linktok.Link {
	return c.links
}

// ToCleaned maps a rendered position into cleaned space.
func (c *Converter) ToCleaned(renderedPos int) int {
	cost := 0
	for _, link := range c.links {
		renderedStart := link.Start - cost
		if renderedPos < renderedStart {
			break
		}
		if renderedPos == renderedStart {
			return link.Start
		}
		if renderedPos < renderedStart+link.DisplayLen() {
			return link.TextStart + (renderedPos - renderedStart)
		}
		cost += link.SyntaxCost()
	}
	return renderedPos + cost
}

// ToRendered maps a cleaned position into rendered space.
func (c *Converter) ToRendered(cleanedPos int) int {
	cost := 0
	for _, link := range c.links {
		if cleanedPos <= link.Start {
			break
		}
		if cleanedPos >= link.End {
			cost += link.SyntaxCost()
			continue
		}

		renderedStart := link.Start - cost
		switch {
		case cleanedPos <= link.TextStart:
			return renderedStart
		case cleanedPos < link.TextEnd:
			return renderedStart + (cleanedPos - link.TextStart)
		default:
			return renderedStart + link.DisplayLen()
		}
	}
	return cleanedPos - cost
}

// ToCleanedFunc adapts the converter to the ConvertFunc signature.
// The cleaned argument is ignored in favour of the converter's text.
func (c *Converter) ToCleanedFunc() ConvertFunc {
	return func(pos int, _ textpos.Text) int { return c.ToCleaned(pos) }
}

// ToRenderedFunc adapts the converter to the ConvertFunc signature.
func (c *Converter) ToRenderedFunc() ConvertFunc {
	return func(pos int, _ textpos.Text) int { return c.ToRendered(pos) }
}
