package textpos_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/annotext/pkg/textpos"
)

func TestFromString_UTF16Lengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ascii", "Hello", 5},
		{"emoji is a surrogate pair", "👋", 2},
		{"cjk stays in the BMP", "世界", 2},
		{"mixed", "Hello 👋 World 世界", 17},
		{"empty", "", 0},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			text := textpos.FromString(testCase.input)
			assert.Equal(t, testCase.want, text.Len())
			assert.Equal(t, testCase.want, textpos.UTF16Len(testCase.input))
			assert.Equal(t, testCase.input, text.String())
		})
	}
}

func TestText_SliceClamps(t *testing.T) {
	t.Parallel()

	text := textpos.FromString("abcdef")

	assert.Equal(t, "cd", text.Substring(2, 4))
	assert.Equal(t, "abc", text.Substring(-5, 3))
	assert.Equal(t, "def", text.Substring(3, 100))
	assert.Equal(t, "", text.Substring(4, 2))
}

func TestText_IsSpaceAt(t *testing.T) {
	t.Parallel()

	text := textpos.FromString("a b\tc\nd e")

	assert.False(t, text.IsSpaceAt(0))
	assert.True(t, text.IsSpaceAt(1))
	assert.True(t, text.IsSpaceAt(3))
	assert.True(t, text.IsSpaceAt(5))
	assert.True(t, text.IsSpaceAt(7))
	assert.False(t, text.IsSpaceAt(-1))
	assert.False(t, text.IsSpaceAt(100))
}

func TestSurrogateBoundaries(t *testing.T) {
	t.Parallel()

	text := textpos.FromString("A👋B")

	assert.Equal(t, 1, text.AdjustToBoundary(1))
	assert.Equal(t, 1, text.AdjustToBoundary(2), "low surrogate moves back to the pair start")
	assert.Equal(t, 0, text.AdjustToBoundary(-3))
	assert.Equal(t, 4, text.AdjustToBoundary(9))

	assert.Equal(t, 1, text.NextBoundary(0))
	assert.Equal(t, 3, text.NextBoundary(1))
	assert.Equal(t, 4, text.NextBoundary(3))

	assert.Equal(t, 3, text.PreviousBoundary(4))
	assert.Equal(t, 1, text.PreviousBoundary(3))
	assert.Equal(t, 0, text.PreviousBoundary(1))

	assert.Equal(t, 2, text.CharacterLength(1))
	assert.Equal(t, 1, text.CharacterLength(3))
	assert.Equal(t, 0, text.CharacterLength(4))
}

func TestByteIndex(t *testing.T) {
	t.Parallel()

	src := []byte("aé👋b")
	idx := textpos.NewByteIndex(src)

	assert.Equal(t, 0, idx.UTF16(0))
	assert.Equal(t, 1, idx.UTF16(1))
	assert.Equal(t, 1, idx.UTF16(2), "inside é maps to its start")
	assert.Equal(t, 2, idx.UTF16(3))
	assert.Equal(t, 4, idx.UTF16(7))
	assert.Equal(t, 5, idx.UTF16(8))
	assert.Equal(t, 5, idx.UTF16(100))
	assert.Equal(t, textpos.Range{Start: 2, End: 4}, idx.Range(3, 7))
}

func TestRange_Overlaps(t *testing.T) {
	t.Parallel()

	base := textpos.Range{Start: 10, End: 20}

	assert.True(t, base.Overlaps(textpos.Range{Start: 5, End: 11}))
	assert.True(t, base.Overlaps(textpos.Range{Start: 12, End: 18}))
	assert.True(t, base.Overlaps(textpos.Range{Start: 0, End: 30}))
	assert.False(t, base.Overlaps(textpos.Range{Start: 20, End: 25}), "touching end")
	assert.False(t, base.Overlaps(textpos.Range{Start: 0, End: 10}), "touching start")
	assert.False(t, base.Overlaps(textpos.Range{Start: 15, End: 15}), "empty range")
}

func TestRange_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, textpos.Range{Start: 0, End: 5}.Validate(5))

	var rangeErr *textpos.RangeError
	err := textpos.Range{Start: -1, End: 2}.Validate(5)
	require.Error(t, err)
	assert.True(t, errors.As(err, &rangeErr))

	assert.Error(t, textpos.Range{Start: 3, End: 2}.Validate(5))
	assert.Error(t, textpos.Range{Start: 0, End: 6}.Validate(5))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := textpos.Normalize([]textpos.Range{
		{Start: 10, End: 12},
		{Start: 0, End: 3},
		{Start: 2, End: 5},
		{Start: 7, End: 7},
		{Start: 12, End: 14},
	})

	assert.Equal(t, []textpos.Range{{Start: 0, End: 5}, {Start: 10, End: 14}}, got)
	assert.Nil(t, textpos.Normalize(nil))
}

func TestSpace_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "raw", textpos.SpaceRaw.String())
	assert.Equal(t, "cleaned", textpos.SpaceCleaned.String())
	assert.Equal(t, "rendered", textpos.SpaceRendered.String())
	assert.Equal(t, "dom", textpos.SpaceDOM.String())
	assert.Equal(t, "unknown", textpos.Space(99).String())
}
