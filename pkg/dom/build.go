package dom

import (
	"github.com/yaklabco/annotext/pkg/linktok"
	"github.com/yaklabco/annotext/pkg/spaces"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// Build creates the reading-view tree for a document. Paragraphs are
// separated by blank lines, links become anchors holding their display
// text, and the separators are kept as whitespace text nodes so the text
// content of the returned container equals sp.Rendered.
func Build(sp *spaces.Spaces) *Node {
	container := NewElement("div")

	prev := 0
	for _, sep := range paragraphBreaks(sp.Cleaned, sp.Links) {
		appendParagraph(container, sp.Cleaned, sp.Links, prev, sep.Start)
		container.AppendChild(newTextData(sp.Cleaned.Slice(sep.Start, sep.End)))
		prev = sep.End
	}
	appendParagraph(container, sp.Cleaned, sp.Links, prev, len(sp.Cleaned))

	return container
}

// paragraphBreaks returns the whitespace runs holding at least two line
// breaks that are not inside a link.
func paragraphBreaks(cleaned textpos.Text, links []linktok.Link) []textpos.Range {
	var breaks []textpos.Range

	for i := 0; i < len(cleaned); {
		if !cleaned.IsSpaceAt(i) {
			i++
			continue
		}

		start, newlines := i, 0
		for i < len(cleaned) && cleaned.IsSpaceAt(i) {
			if cleaned[i] == '\n' {
				newlines++
			}
			i++
		}

		if newlines >= 2 && !insideLink(links, start) {
			breaks = append(breaks, textpos.Range{Start: start, End: i})
		}
	}
	return breaks
}

func insideLink(links []linktok.Link, pos int) bool {
	_, ok := linktok.LinkAt(links, pos)
	return ok
}

// appendParagraph adds a p element for cleaned[start:end], skipping empty
// segments.
func appendParagraph(container *Node, cleaned textpos.Text, links []linktok.Link, start, end int) {
	if start >= end {
		return
	}

	para := container.AppendChild(NewElement("p"))
	pos := start
	for _, link := range links {
		if link.Start < start || link.End > end {
			continue
		}
		if link.Start > pos {
			para.AppendChild(newTextData(cleaned.Slice(pos, link.Start)))
		}

		anchor := para.AppendChild(NewElement("a"))
		anchor.SetAttr("href", link.URL)
		if link.DisplayLen() > 0 {
			anchor.AppendChild(newTextData(cleaned.Slice(link.TextStart, link.TextEnd)))
		}
		pos = link.End
	}
	if pos < end {
		para.AppendChild(newTextData(cleaned.Slice(pos, end)))
	}
}
