package dom

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

var (
	// ErrNoSelection is returned when the selection holds no range.
	ErrNoSelection = errors.New("no selection")

	// ErrOutsideContainer is returned when the selection is not within
	// the container.
	ErrOutsideContainer = errors.New("selection is outside the container")

	// ErrCollapsedSelection is returned, together with the offsets, when a
	// range that covers text resolves to equal start and end offsets. It
	// signals a mis-resolved boundary rather than an empty selection.
	ErrCollapsedSelection = errors.New("non-empty selection resolved to a collapsed range")
)

// Position is a DOM boundary point.
type Position struct {
	Node   *Node
	Offset int
}

// Mapper converts between DOM positions and rendered-space offsets.
// Unresolvable references are recovered locally and logged.
type Mapper struct {
	logger *log.Logger
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithLogger sets the logger for recovered lookups.
func WithLogger(logger *log.Logger) MapperOption {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMapper creates a Mapper. Without WithLogger diagnostics are discarded.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// textIndex lists the text nodes of a container with their absolute
// start offsets.
type textIndex struct {
	nodes  []*Node
	starts []int
	total  int
}

func indexText(container *Node) textIndex {
	var idx textIndex
	for _, n := range TextNodes(container) {
		idx.nodes = append(idx.nodes, n)
		idx.starts = append(idx.starts, idx.total)
		idx.total += len(n.Data)
	}
	return idx
}

func (idx textIndex) find(node *Node) int {
	for i, n := range idx.nodes {
		if n == node {
			return i
		}
	}
	return -1
}

// boundary returns the offset of the boundary point (node, offset) in the
// text under root, without preferring either side of empty text.
func (idx textIndex) boundary(root, node *Node, offset int) int {
	if node.IsText() {
		if i := idx.find(node); i >= 0 {
			return idx.starts[i] + min(max(offset, 0), len(node.Data))
		}
		return idx.total
	}

	count := countTextBefore(root, node, min(max(offset, 0), node.ChildCount()))
	if count < len(idx.starts) {
		return idx.starts[count]
	}
	return idx.total
}

// DOMToAbsolute converts a DOM position under container into a rendered
// offset.
//
// For a text node the result is the length of all preceding text plus
// offset. For an element, offset is a child index; an end boundary
// resolves to the end of the nearest preceding non-empty text and a start
// boundary to the start of the nearest following one. Nodes outside the
// container resolve to the end of the text.
func (m *Mapper) DOMToAbsolute(container, node *Node, offset int, isEnd bool) int {
	idx := indexText(container)

	if node == nil || !container.Contains(node) {
		m.logger.Debug("dom node outside container, using end of text", "total", idx.total)
		return idx.total
	}

	if node.IsText() {
		i := idx.find(node)
		return idx.starts[i] + min(max(offset, 0), len(node.Data))
	}

	offset = min(max(offset, 0), node.ChildCount())
	before := countTextBefore(container, node, offset)

	var pos int
	if isEnd {
		pos = nearestPrecedingTextEnd(idx, before)
	} else {
		pos = nearestFollowingTextStart(idx, before)
	}
	m.logger.Debug("resolved element boundary",
		"tag", node.Tag, "child", offset, "is_end", isEnd,
		"at_text_start", isTextBoundaryStart(node, offset), "pos", pos)
	return pos
}

// isTextBoundaryStart reports whether the boundary before child[offset]
// of element has no non-empty text before it inside the element.
func isTextBoundaryStart(element *Node, offset int) bool {
	child := element.FirstChild
	for i := 0; i < offset && child != nil; i++ {
		if len(child.TextContent()) > 0 {
			return false
		}
		child = child.Next
	}
	return true
}

// countTextBefore returns how many text nodes under container come
// before the boundary (element, offset) in document order.
func countTextBefore(container, element *Node, offset int) int {
	boundary := element.ChildAt(offset)
	count := 0

	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		if n == boundary {
			return true
		}
		if n.IsText() {
			count++
			return false
		}
		for child := n.FirstChild; child != nil; child = child.Next {
			if visit(child) {
				return true
			}
		}
		// Past the last child of the element: the boundary is here.
		return n == element && boundary == nil
	}
	visit(container)
	return count
}

// nearestPrecedingTextEnd walks back from the first count text nodes to
// the last non-empty one and returns its end offset, or 0 if none.
func nearestPrecedingTextEnd(idx textIndex, count int) int {
	for i := count - 1; i >= 0; i-- {
		if len(idx.nodes[i].Data) > 0 {
			return idx.starts[i] + len(idx.nodes[i].Data)
		}
	}
	return 0
}

// nearestFollowingTextStart returns the start offset of the first
// non-empty text node at or after index count, or the total length.
func nearestFollowingTextStart(idx textIndex, count int) int {
	for i := count; i < len(idx.nodes); i++ {
		if len(idx.nodes[i].Data) > 0 {
			return idx.starts[i]
		}
	}
	return idx.total
}

// AbsoluteToNode returns the text node and offset of a rendered offset.
// Offsets past the end resolve to the end of the last text node; a
// container without text resolves to (container, 0).
func (m *Mapper) AbsoluteToNode(container *Node, pos int) Position {
	if pos < 0 {
		m.logger.Debug("negative offset clamped", "pos", pos)
		pos = 0
	}

	idx := indexText(container)
	for i, n := range idx.nodes {
		if idx.starts[i]+len(n.Data) >= pos {
			return Position{Node: n, Offset: pos - idx.starts[i]}
		}
	}

	if len(idx.nodes) == 0 {
		m.logger.Debug("container has no text", "pos", pos)
		return Position{Node: container, Offset: 0}
	}

	last := idx.nodes[len(idx.nodes)-1]
	m.logger.Debug("offset past end of text", "pos", pos, "total", idx.total)
	return Position{Node: last, Offset: len(last.Data)}
}

// SelectionOffsets converts the first range of sel into rendered offsets.
// A range that covers text but resolves to equal offsets returns the
// offsets together with ErrCollapsedSelection. A range covering no text,
// such as one between an element boundary and the start of its next text,
// is an empty selection and not an error.
func (m *Mapper) SelectionOffsets(container *Node, sel *Selection) (int, int, error) {
	r := sel.RangeAt(0)
	if r == nil {
		return 0, 0, ErrNoSelection
	}
	if anc := r.CommonAncestor(); anc == nil || !container.Contains(anc) {
		return 0, 0, ErrOutsideContainer
	}

	start := m.DOMToAbsolute(container, r.StartContainer, r.StartOffset, false)
	end := m.DOMToAbsolute(container, r.EndContainer, r.EndOffset, true)

	if start == end && r.TextContent() != "" {
		m.logger.Warn("selection collapsed during resolution",
			"start_tag", r.StartContainer.Tag, "end_tag", r.EndContainer.Tag, "pos", start)
		return start, end, ErrCollapsedSelection
	}
	return start, end, nil
}

// SetSelection replaces sel's ranges with one spanning [start, end).
func (m *Mapper) SetSelection(container *Node, sel *Selection, start, end int) {
	from := m.AbsoluteToNode(container, start)
	to := m.AbsoluteToNode(container, end)

	sel.RemoveAllRanges()
	sel.AddRange(NewRange(from.Node, from.Offset, to.Node, to.Offset))
}

// ExtractText returns the rendered text between two offsets.
func ExtractText(container *Node, start, end int) string {
	return container.TextContent().Substring(start, end)
}
