// Package linktok tokenizes inline markdown links of the form [text](url).
//
// The tokenizer is deliberately narrower than CommonMark: it recognizes
// only inline links, allows brackets inside link text when they appear as
// "]]", and tracks parenthesis depth inside URLs so that links such as
// https://en.wikipedia.org/wiki/Go_(programming_language) parse whole.
// A bracketed token that is not immediately followed by "(" is plain text
// and never opens a link that could swallow the text up to a later link.
//
// All offsets are UTF-16 code unit positions (see package textpos).
package linktok

import (
	"errors"
	"fmt"

	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// ErrInvalidLink is returned when a span does not hold [text](url) syntax.
var ErrInvalidLink = errors.New("invalid link syntax")

// Link is one inline link found in cleaned text.
type Link struct {
	// DisplayText is the text between the outer brackets.
	DisplayText string

	// URL is the destination between the outer parentheses.
	URL string

	// Start is the offset of the opening "[" (inclusive).
	Start int

	// End is the offset just past the closing ")" (exclusive).
	End int

	// TextStart and TextEnd delimit DisplayText inside the link.
	TextStart int
	TextEnd   int
}

// Range returns the full [Start, End) span of the link.
func (l Link) Range() textpos.Range {
	return textpos.Range{Start: l.Start, End: l.End}
}

// TextRange returns the span of the display text.
func (l Link) TextRange() textpos.Range {
	return textpos.Range{Start: l.TextStart, End: l.TextEnd}
}

// DisplayLen is the length of the display text in code units.
func (l Link) DisplayLen() int {
	return l.TextEnd - l.TextStart
}

// SyntaxCost is the number of code units removed when the link is
// replaced by its display text.
func (l Link) SyntaxCost() int {
	return (l.End - l.Start) - l.DisplayLen()
}

func (l Link) String() string {
	return fmt.Sprintf("[%s](%s)@%d-%d", l.DisplayText, l.URL, l.Start, l.End)
}

// ParseAt attempts to parse a link that starts exactly at index i.
// It reports false when text[i] is not "[" or when no complete link
// starts there.
func ParseAt(text textpos.Text, i int) (Link, bool) {
	if i < 0 || i >= len(text) || text[i] != '[' {
		return Link{}, false
	}

	// Link text runs until "](". "]]" keeps the first bracket as text.
	pos := i + 1
	foundClose := false
	for pos < len(text) {
		if text[pos] != ']' {
			pos++
			continue
		}
		next := text.At(pos + 1)
		if pos+1 < len(text) && next == '(' {
			foundClose = true
			break
		}
		if pos+1 < len(text) && next == ']' {
			pos++
			continue
		}
		return Link{}, false
	}
	if !foundClose {
		return Link{}, false
	}

	textStart := i + 1
	textEnd := pos

	// Skip "](" and scan the URL tracking parenthesis depth.
	pos += 2
	urlStart := pos
	depth := 0
	for pos < len(text) {
		switch text[pos] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return Link{
					DisplayText: text.Substring(textStart, textEnd),
					URL:         text.Substring(urlStart, pos),
					Start:       i,
					End:         pos + 1,
					TextStart:   textStart,
					TextEnd:     textEnd,
				}, true
			}
			depth--
		}
		pos++
	}

	return Link{}, false
}

// FindAll returns every link in text in document order.
// Scanning resumes after each match, so nested or overlapping links are
// never reported.
func FindAll(text textpos.Text) []Link {
	var links []Link
	for i := 0; i < len(text); {
		if text[i] != '[' {
			i++
			continue
		}
		link, ok := ParseAt(text, i)
		if !ok {
			i++
			continue
		}
		links = append(links, link)
		i = link.End
	}
	return links
}

// Strip replaces every link in text with its display text.
func Strip(text textpos.Text) textpos.Text {
	return StripLinks(text, FindAll(text))
}

// StripLinks replaces the given links, which must come from FindAll on
// the same text, with their display text.
func StripLinks(text textpos.Text, links []Link) textpos.Text {
	if len(links) == 0 {
		return text
	}

	out := make(textpos.Text, 0, len(text))
	prev := 0
	for _, link := range links {
		out = append(out, text[prev:link.Start]...)
		out = append(out, text[link.TextStart:link.TextEnd]...)
		prev = link.End
	}
	return append(out, text[prev:]...)
}

// Reassemble re-inserts link syntax into rendered text using link spans
// recorded from the cleaned text that produced it. It is the inverse of
// StripLinks for unchanged rendered text.
func Reassemble(rendered textpos.Text, links []Link) textpos.Text {
	if len(links) == 0 {
		return rendered
	}

	out := make(textpos.Text, 0, len(rendered)+totalCost(links))
	prev := 0
	cost := 0
	for _, link := range links {
		renderedStart := link.Start - cost
		renderedEnd := renderedStart + link.DisplayLen()

		out = append(out, rendered.Slice(prev, renderedStart)...)
		out = append(out, '[')
		out = append(out, rendered.Slice(renderedStart, renderedEnd)...)
		out = append(out, ']', '(')
		out = append(out, textpos.FromString(link.URL)...)
		out = append(out, ')')

		prev = renderedEnd
		cost += link.SyntaxCost()
	}
	return append(out, rendered.Slice(prev, len(rendered))...)
}

// IsPositionInLink reports whether pos lies strictly inside some link,
// that is after its "[" and before its end.
func IsPositionInLink(pos int, text textpos.Text) bool {
	_, ok := LinkAt(FindAll(text), pos)
	return ok
}

// LinkAt returns the link that strictly contains pos.
func LinkAt(links []Link, pos int) (Link, bool) {
	for _, link := range links {
		if link.Start >= pos {
			break
		}
		if pos > link.Start && pos < link.End {
			return link, true
		}
	}
	return Link{}, false
}

// UpdateLinkText rewrites the display text of the link occupying span,
// keeping its URL. The span must hold exactly one link with non-empty
// display text and URL.
func UpdateLinkText(text textpos.Text, span textpos.Range, newText string) (textpos.Text, error) {
	if err := span.Validate(len(text)); err != nil {
		return nil, fmt.Errorf("update link text: %w", err)
	}

	segment := text.Slice(span.Start, span.End)
	link, ok := ParseAt(segment, 0)
	if !ok || link.End != len(segment) || link.DisplayLen() == 0 || link.URL == "" {
		return nil, fmt.Errorf("update link text at %s: %w", span, ErrInvalidLink)
	}

	return edit.Replace(text, span.Start, span.End, "["+newText+"]("+link.URL+")")
}

func totalCost(links []Link) int {
	n := 0
	for _, link := range links {
		n += link.SyntaxCost()
	}
	return n
}
