package dom

import "iter"

// All yields root and its descendants in document order.
func All(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		visit(root, yield)
	}
}

func visit(n *Node, yield func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	for child := n.FirstChild; child != nil; child = child.Next {
		if !visit(child, yield) {
			return false
		}
	}
	return true
}

// TextNodes returns the text nodes under root in document order.
func TextNodes(root *Node) []*Node {
	var nodes []*Node
	for n := range All(root) {
		if n.IsText() {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// FindFirst returns the first node in document order matching predicate,
// or nil.
func FindFirst(root *Node, predicate func(n *Node) bool) *Node {
	for n := range All(root) {
		if predicate(n) {
			return n
		}
	}
	return nil
}
