package dom

// Range is a pair of DOM boundary points.
type Range struct {
	StartContainer *Node
	StartOffset    int
	EndContainer   *Node
	EndOffset      int
}

// NewRange creates a range between two boundary points.
func NewRange(startNode *Node, startOffset int, endNode *Node, endOffset int) *Range {
	return &Range{
		StartContainer: startNode,
		StartOffset:    startOffset,
		EndContainer:   endNode,
		EndOffset:      endOffset,
	}
}

// Collapsed reports whether start and end are the same point.
func (r *Range) Collapsed() bool {
	return r.StartContainer == r.EndContainer && r.StartOffset == r.EndOffset
}

// CommonAncestor returns the deepest node containing both containers, or
// nil if they are in different trees.
func (r *Range) CommonAncestor() *Node {
	for anc := r.StartContainer; anc != nil; anc = anc.Parent {
		if anc.Contains(r.EndContainer) {
			return anc
		}
	}
	return nil
}

// TextContent returns the text between the range's boundary points, like
// a browser Range's string value. An inverted range or one whose
// containers are in different trees yields the empty string.
func (r *Range) TextContent() string {
	root := r.CommonAncestor()
	if root == nil {
		return ""
	}

	idx := indexText(root)
	start := idx.boundary(root, r.StartContainer, r.StartOffset)
	end := idx.boundary(root, r.EndContainer, r.EndOffset)
	if end <= start {
		return ""
	}
	return root.TextContent().Substring(start, end)
}

// Selection holds the ranges of a document selection. Only the first
// range is used, as with single-range browser selections.
type Selection struct {
	ranges []*Range
}

// RangeCount returns the number of ranges.
func (s *Selection) RangeCount() int {
	if s == nil {
		return 0
	}
	return len(s.ranges)
}

// RangeAt returns range i, or nil if out of bounds.
func (s *Selection) RangeAt(i int) *Range {
	if i < 0 || i >= s.RangeCount() {
		return nil
	}
	return s.ranges[i]
}

// AddRange appends a range.
func (s *Selection) AddRange(r *Range) {
	s.ranges = append(s.ranges, r)
}

// RemoveAllRanges clears the selection.
func (s *Selection) RemoveAllRanges() {
	s.ranges = nil
}
