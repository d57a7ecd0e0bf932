package selection

import (
	"github.com/yaklabco/annotext/pkg/linktok"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// expandToLinks moves any edge that lies strictly inside a link to the
// link's outer boundary.
func expandToLinks(start, end int, links []linktok.Link) (int, int, bool) {
	newStart, newEnd := start, end
	if link, ok := linktok.LinkAt(links, start); ok {
		newStart = link.Start
	}
	if link, ok := linktok.LinkAt(links, end); ok {
		newEnd = link.End
	}
	return newStart, newEnd, newStart != start || newEnd != end
}

// expandToWords grows both edges outward while the adjacent character is
// not whitespace.
func expandToWords(start, end int, rendered textpos.Text) (int, int, bool) {
	newStart, newEnd := clampPos(start, rendered), clampPos(end, rendered)
	for newStart > 0 && !rendered.IsSpaceAt(newStart-1) {
		newStart--
	}
	for newEnd < rendered.Len() && !rendered.IsSpaceAt(newEnd) {
		newEnd++
	}
	return newStart, newEnd, newStart != start || newEnd != end
}

// expandToSentences grows the start back to just after a sentence
// terminator followed by whitespace, or to the text start, and the end
// forward to just past the next terminator followed by whitespace or the
// text end. Edges already on a sentence boundary stay put.
func expandToSentences(start, end int, rendered textpos.Text) (int, int, bool) {
	newStart, newEnd := clampPos(start, rendered), clampPos(end, rendered)

	for newStart > 0 && !isSentenceStart(rendered, newStart) {
		newStart--
	}
	for newEnd < rendered.Len() && !isSentenceEnd(rendered, newEnd) {
		newEnd++
	}
	return newStart, newEnd, newStart != start || newEnd != end
}

// isSentenceStart reports whether pos follows a terminator and whitespace.
func isSentenceStart(text textpos.Text, pos int) bool {
	return pos >= 2 && text.IsSpaceAt(pos-1) && isTerminator(text.At(pos-2))
}

// isSentenceEnd reports whether pos is just past a terminator that is
// followed by whitespace or the end of the text.
func isSentenceEnd(text textpos.Text, pos int) bool {
	if pos < 1 || !isTerminator(text.At(pos-1)) {
		return false
	}
	return pos >= text.Len() || text.IsSpaceAt(pos)
}

func isTerminator(u uint16) bool {
	return u == '.' || u == '!' || u == '?'
}

// onWordBoundary reports whether the character at index is absent or
// whitespace.
func onWordBoundary(text textpos.Text, index int) bool {
	return index < 0 || index >= text.Len() || text.IsSpaceAt(index)
}

func clampPos(pos int, text textpos.Text) int {
	return min(max(pos, 0), text.Len())
}
