package edit_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/annotext/pkg/edit"
)

func TestGenerateDiff(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for identical content", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, edit.GenerateDiff("doc.md", "", ""))
		assert.Nil(t, edit.GenerateDiff("doc.md", "hello\nworld\n", "hello\nworld\n"))
	})

	t.Run("single line change", func(t *testing.T) {
		t.Parallel()

		diff := edit.GenerateDiff("doc.md", "hello\nworld\n", "hello\nearth\n")
		require.NotNil(t, diff)
		assert.True(t, diff.HasChanges())
		assert.Equal(t, 1, diff.Additions)
		assert.Equal(t, 1, diff.Deletions)

		want := "--- a/doc.md\n+++ b/doc.md\n@@ -1,2 +1,2 @@\n hello\n-world\n+earth\n"
		assert.Equal(t, want, diff.String())
	})

	t.Run("addition at end", func(t *testing.T) {
		t.Parallel()

		diff := edit.GenerateDiff("/abs/doc.md", "line1\nline2\n", "line1\nline2\nline3\n")
		require.NotNil(t, diff)
		assert.Contains(t, diff.String(), "+line3")
		assert.True(t, strings.HasPrefix(diff.String(), "--- a/abs/doc.md\n"))
	})

	t.Run("distant changes produce separate hunks", func(t *testing.T) {
		t.Parallel()

		var before, after []string
		for i := 1; i <= 20; i++ {
			before = append(before, fmt.Sprintf("line %d", i))
			after = append(after, fmt.Sprintf("line %d", i))
		}
		after[1] = "changed 2"
		after[17] = "changed 18"

		diff := edit.GenerateDiff("doc.md", strings.Join(before, "\n"), strings.Join(after, "\n"))
		require.NotNil(t, diff)
		require.Len(t, diff.Hunks, 2)

		assert.Equal(t, 1, diff.Hunks[0].OldStart)
		assert.Equal(t, 5, diff.Hunks[0].OldCount)
		assert.Equal(t, 15, diff.Hunks[1].OldStart)
		assert.Equal(t, 6, diff.Hunks[1].OldCount)
	})

	t.Run("nearby changes share a hunk", func(t *testing.T) {
		t.Parallel()

		before := "a\nb\nc\nd\ne\nf\ng\nh\n"
		after := "A\nb\nc\nd\ne\nf\ng\nH\n"

		diff := edit.GenerateDiff("doc.md", before, after)
		require.NotNil(t, diff)
		assert.Len(t, diff.Hunks, 1)
	})
}
