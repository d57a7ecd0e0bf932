// Package dom models the reading-view DOM of a document and maps
// positions between DOM coordinates and rendered-space offsets.
//
// The tree mirrors what a browser holds for the rendered document:
// element nodes with ordered children and text nodes holding UTF-16 data.
// A DOM position is a node plus an offset. For text nodes the offset
// counts code units; for elements it is a child index meaning "before
// child[offset]". The tree is not safe for concurrent mutation.
package dom

import (
	"github.com/yaklabco/annotext/pkg/textpos"
)

// NodeType distinguishes element nodes from text nodes.
type NodeType uint8

const (
	// ElementNode is a container with children.
	ElementNode NodeType = iota

	// TextNode holds character data and has no children.
	TextNode
)

// Node is a single element or text node.
type Node struct {
	Type NodeType

	// Tag is the element name, empty for text nodes.
	Tag string

	// Attrs holds element attributes such as href.
	Attrs map[string]string

	// Data is the content of a text node.
	Data textpos.Text

	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Prev       *Node
	Next       *Node
}

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag}
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: textpos.FromString(data)}
}

// newTextData creates a text node sharing the given code units.
func newTextData(data textpos.Text) *Node {
	return &Node{Type: TextNode, Data: data}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n != nil && n.Type == TextNode
}

// SetAttr sets an element attribute.
func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
}

// Attr returns an element attribute, or "" if unset.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// AppendChild detaches child from any previous parent, appends it to n,
// and returns it.
func (n *Node) AppendChild(child *Node) *Node {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}

	child.Parent = n
	child.Prev = n.LastChild
	child.Next = nil
	if n.LastChild != nil {
		n.LastChild.Next = child
	} else {
		n.FirstChild = child
	}
	n.LastChild = child
	return child
}

// RemoveChild detaches child from n. It is a no-op if child is not a
// child of n.
func (n *Node) RemoveChild(child *Node) {
	if child == nil || child.Parent != n {
		return
	}

	if child.Prev != nil {
		child.Prev.Next = child.Next
	} else {
		n.FirstChild = child.Next
	}
	if child.Next != nil {
		child.Next.Prev = child.Prev
	} else {
		n.LastChild = child.Prev
	}
	child.Parent, child.Prev, child.Next = nil, nil, nil
}

// Children returns the direct children of n.
func (n *Node) Children() []*Node {
	var children []*Node
	for child := n.FirstChild; child != nil; child = child.Next {
		children = append(children, child)
	}
	return children
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for child := n.FirstChild; child != nil; child = child.Next {
		count++
	}
	return count
}

// ChildAt returns child i, or nil if out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 {
		return nil
	}
	child := n.FirstChild
	for ; child != nil && i > 0; i-- {
		child = child.Next
	}
	return child
}

// Index returns n's position among its siblings.
func (n *Node) Index() int {
	i := 0
	for sib := n.Prev; sib != nil; sib = sib.Prev {
		i++
	}
	return i
}

// Len returns the text length of a text node or the child count of an
// element, the upper bound of valid offsets in each case.
func (n *Node) Len() int {
	if n.IsText() {
		return len(n.Data)
	}
	return n.ChildCount()
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// TextContent concatenates all text under n in document order.
func (n *Node) TextContent() textpos.Text {
	if n.IsText() {
		return n.Data
	}
	var out textpos.Text
	for _, text := range TextNodes(n) {
		out = append(out, text.Data...)
	}
	return out
}
