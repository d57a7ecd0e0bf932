package dom_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/annotext/pkg/dom"
	"github.com/yaklabco/annotext/pkg/spaces"
)

const twoParagraphs = "Hello [World](http://x) again.\n\nSecond para."

func build(t *testing.T, doc string) (*spaces.Spaces, *dom.Node) {
	t.Helper()

	sp, err := spaces.Derive(doc, nil)
	require.NoError(t, err)
	return sp, dom.Build(sp)
}

func tags(nodes []*dom.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.IsText() {
			out = append(out, "#"+n.Data.String())
			continue
		}
		out = append(out, n.Tag)
	}
	return out
}

func TestBuild_Structure(t *testing.T) {
	t.Parallel()

	sp, root := build(t, twoParagraphs)

	assert.Equal(t, "div", root.Tag)
	assert.True(t, sp.Rendered.Equal(root.TextContent()))
	assert.Equal(t, "Hello World again.\n\nSecond para.", root.TextContent().String())

	if diff := cmp.Diff([]string{"p", "#\n\n", "p"}, tags(root.Children())); diff != "" {
		t.Errorf("container children mismatch (-want +got):\n%s", diff)
	}

	first := root.FirstChild
	if diff := cmp.Diff([]string{"#Hello ", "a", "# again."}, tags(first.Children())); diff != "" {
		t.Errorf("paragraph children mismatch (-want +got):\n%s", diff)
	}

	anchor := first.ChildAt(1)
	assert.Equal(t, "http://x", anchor.Attr("href"))
	assert.Equal(t, "World", anchor.TextContent().String())
}

func TestBuild_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		doc      string
		children []string
	}{
		{name: "empty document", doc: "", children: []string{}},
		{name: "leading blank lines", doc: "\n\nHi", children: []string{"#\n\n", "p"}},
		{name: "single newline stays in paragraph", doc: "a\nb", children: []string{"p"}},
		{name: "blank line inside link text", doc: "[a\n\nb](u) c", children: []string{"p"}},
		{name: "empty link display", doc: "x [](u) y", children: []string{"p"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			sp, root := build(t, testCase.doc)

			assert.True(t, sp.Rendered.Equal(root.TextContent()))
			if diff := cmp.Diff(testCase.children, tags(root.Children())); diff != "" {
				t.Errorf("children mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_EmptyLinkHasNoText(t *testing.T) {
	t.Parallel()

	_, root := build(t, "x [](u) y")

	anchor := dom.FindFirst(root, func(n *dom.Node) bool { return n.Tag == "a" })
	require.NotNil(t, anchor)
	assert.Nil(t, anchor.FirstChild)
	assert.Equal(t, "u", anchor.Attr("href"))
}

func TestMapper_DOMToAbsolute(t *testing.T) {
	t.Parallel()

	_, root := build(t, twoParagraphs)
	first := root.FirstChild
	anchor := first.ChildAt(1)
	world := anchor.FirstChild
	second := root.LastChild

	tests := []struct {
		name   string
		node   *dom.Node
		offset int
		isEnd  bool
		want   int
	}{
		{name: "text node", node: world, offset: 2, want: 8},
		{name: "text node offset clamped", node: world, offset: 99, want: 11},
		{name: "second paragraph text", node: second.FirstChild, offset: 6, want: 26},
		{name: "before anchor as start", node: first, offset: 1, want: 6},
		{name: "before anchor as end", node: first, offset: 1, isEnd: true, want: 6},
		{name: "before separator as end", node: root, offset: 1, isEnd: true, want: 18},
		{name: "before separator as start", node: root, offset: 1, want: 18},
		{name: "after last paragraph child", node: first, offset: 3, isEnd: true, want: 18},
		{name: "past container end", node: root, offset: 3, isEnd: true, want: 32},
		{name: "container start", node: root, offset: 0, want: 0},
		{name: "outside container", node: dom.NewText("zzz"), offset: 1, want: 32},
	}

	mapper := dom.NewMapper()
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := mapper.DOMToAbsolute(root, testCase.node, testCase.offset, testCase.isEnd)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestMapper_AbsoluteToNode(t *testing.T) {
	t.Parallel()

	_, root := build(t, twoParagraphs)
	mapper := dom.NewMapper()

	tests := []struct {
		name       string
		pos        int
		wantText   string
		wantOffset int
	}{
		{name: "start", pos: 0, wantText: "Hello ", wantOffset: 0},
		{name: "end of first node", pos: 6, wantText: "Hello ", wantOffset: 6},
		{name: "inside anchor", pos: 7, wantText: "World", wantOffset: 1},
		{name: "negative clamps", pos: -4, wantText: "Hello ", wantOffset: 0},
		{name: "past end", pos: 100, wantText: "Second para.", wantOffset: 12},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := mapper.AbsoluteToNode(root, testCase.pos)
			require.True(t, got.Node.IsText())
			assert.Equal(t, testCase.wantText, got.Node.Data.String())
			assert.Equal(t, testCase.wantOffset, got.Offset)
		})
	}
}

func TestMapper_AbsoluteToNodeWithoutText(t *testing.T) {
	t.Parallel()

	root := dom.NewElement("div")
	got := dom.NewMapper().AbsoluteToNode(root, 5)

	assert.Same(t, root, got.Node)
	assert.Equal(t, 0, got.Offset)
}

func TestMapper_RoundTrip(t *testing.T) {
	t.Parallel()

	sp, root := build(t, twoParagraphs)
	mapper := dom.NewMapper()

	for pos := 0; pos <= len(sp.Rendered); pos++ {
		at := mapper.AbsoluteToNode(root, pos)
		assert.Equal(t, pos, mapper.DOMToAbsolute(root, at.Node, at.Offset, false), "pos %d", pos)
	}
}

func TestMapper_SelectionOffsets(t *testing.T) {
	t.Parallel()

	_, root := build(t, twoParagraphs)
	first := root.FirstChild
	anchor := first.ChildAt(1)
	mapper := dom.NewMapper()

	t.Run("text range", func(t *testing.T) {
		t.Parallel()

		var sel dom.Selection
		sel.AddRange(dom.NewRange(anchor.FirstChild, 0, first.LastChild, 3))

		start, end, err := mapper.SelectionOffsets(root, &sel)
		require.NoError(t, err)
		assert.Equal(t, 6, start)
		assert.Equal(t, 14, end)
		assert.Equal(t, "World ag", dom.ExtractText(root, start, end))
	})

	t.Run("no range", func(t *testing.T) {
		t.Parallel()

		_, _, err := mapper.SelectionOffsets(root, &dom.Selection{})
		require.ErrorIs(t, err, dom.ErrNoSelection)
	})

	t.Run("outside container", func(t *testing.T) {
		t.Parallel()

		other := dom.NewText("elsewhere")
		var sel dom.Selection
		sel.AddRange(dom.NewRange(other, 0, other, 3))

		_, _, err := mapper.SelectionOffsets(root, &sel)
		require.ErrorIs(t, err, dom.ErrOutsideContainer)
	})

	t.Run("range without text across containers", func(t *testing.T) {
		t.Parallel()

		var sel dom.Selection
		sel.AddRange(dom.NewRange(first, 1, anchor, 0))

		start, end, err := mapper.SelectionOffsets(root, &sel)
		require.NoError(t, err)
		assert.Equal(t, 6, start)
		assert.Equal(t, 6, end)
	})

	t.Run("collapsed range is not an error", func(t *testing.T) {
		t.Parallel()

		var sel dom.Selection
		sel.AddRange(dom.NewRange(anchor.FirstChild, 2, anchor.FirstChild, 2))

		start, end, err := mapper.SelectionOffsets(root, &sel)
		require.NoError(t, err)
		assert.Equal(t, 8, start)
		assert.Equal(t, 8, end)
	})
}

func TestRange_TextContent(t *testing.T) {
	t.Parallel()

	_, root := build(t, twoParagraphs)
	first := root.FirstChild
	anchor := first.ChildAt(1)

	tests := []struct {
		name string
		rng  *dom.Range
		want string
	}{
		{name: "text to text", rng: dom.NewRange(anchor.FirstChild, 0, first.LastChild, 3), want: "World ag"},
		{name: "element boundary to text start", rng: dom.NewRange(first, 1, anchor, 0), want: ""},
		{name: "whole paragraph", rng: dom.NewRange(first, 0, first, first.ChildCount()), want: "Hello World again."},
		{name: "inverted", rng: dom.NewRange(anchor.FirstChild, 4, anchor.FirstChild, 1), want: ""},
		{name: "different trees", rng: dom.NewRange(anchor.FirstChild, 0, dom.NewText("x"), 1), want: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, testCase.rng.TextContent())
		})
	}
}

func TestMapper_SetSelection(t *testing.T) {
	t.Parallel()

	_, root := build(t, twoParagraphs)
	mapper := dom.NewMapper()

	var sel dom.Selection
	sel.AddRange(dom.NewRange(root, 0, root, 0))
	mapper.SetSelection(root, &sel, 3, 26)

	require.Equal(t, 1, sel.RangeCount())
	start, end, err := mapper.SelectionOffsets(root, &sel)
	require.NoError(t, err)
	assert.Equal(t, 3, start)
	assert.Equal(t, 26, end)
	assert.Equal(t, "lo World again.\n\nSecond", dom.ExtractText(root, start, end))
}

func TestNode_Tree(t *testing.T) {
	t.Parallel()

	parent := dom.NewElement("p")
	a := parent.AppendChild(dom.NewText("a"))
	b := parent.AppendChild(dom.NewText("b"))
	c := parent.AppendChild(dom.NewText("c"))

	assert.Equal(t, 3, parent.ChildCount())
	assert.Equal(t, 3, parent.Len())
	assert.Equal(t, 1, b.Index())
	assert.Same(t, c, parent.ChildAt(2))
	assert.Nil(t, parent.ChildAt(3))
	assert.Nil(t, parent.ChildAt(-1))
	assert.True(t, parent.Contains(b))
	assert.False(t, b.Contains(parent))

	other := dom.NewElement("span")
	other.AppendChild(b)

	assert.Equal(t, "ac", parent.TextContent().String())
	assert.Same(t, other, b.Parent)
	assert.Same(t, c, a.Next)
	assert.Same(t, a, c.Prev)

	parent.RemoveChild(a)
	parent.RemoveChild(b)
	assert.Same(t, c, parent.FirstChild)
	assert.Same(t, c, parent.LastChild)
	assert.Nil(t, a.Parent)
}

func TestCommonAncestor(t *testing.T) {
	t.Parallel()

	_, root := build(t, twoParagraphs)
	first := root.FirstChild
	world := first.ChildAt(1).FirstChild

	assert.Same(t, first, dom.NewRange(first.FirstChild, 0, world, 1).CommonAncestor())
	assert.Same(t, root, dom.NewRange(world, 0, root.LastChild.FirstChild, 1).CommonAncestor())
	assert.Nil(t, dom.NewRange(world, 0, dom.NewText("x"), 0).CommonAncestor())
}

func TestAll(t *testing.T) {
	t.Parallel()

	_, root := build(t, twoParagraphs)

	var order []*dom.Node
	for n := range dom.All(root) {
		order = append(order, n)
	}
	want := []string{"div", "p", "#Hello ", "a", "#World", "# again.", "#\n\n", "p", "#Second para."}
	if diff := cmp.Diff(want, tags(order)); diff != "" {
		t.Errorf("document order mismatch (-want +got):\n%s", diff)
	}

	var seen int
	for range dom.All(root) {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
	assert.Nil(t, dom.FindFirst(root, func(n *dom.Node) bool { return n.Tag == "table" }))
}
