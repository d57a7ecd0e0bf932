package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/annotext/pkg/marks"
)

func openTest(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "annotext.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "sub", "nested", "annotext.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCloseNilDB(t *testing.T) {
	t.Parallel()

	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTest(t)
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	_, err := s.LoadDocument(ctx, "notes.md")
	require.ErrorIs(t, err, ErrNotFound)

	saved, err := s.SaveDocument(ctx, "notes.md", "first")
	require.NoError(t, err)
	assert.Equal(t, "first", saved.Content)
	assert.True(t, fixed.Equal(saved.UpdatedAt))

	updated, err := s.SaveDocument(ctx, "notes.md", "second")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	loaded, err := s.LoadDocument(ctx, "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.Content)
}

func TestMarksLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTest(t)

	_, err := s.SaveDocument(ctx, "doc.md", "Hello world")
	require.NoError(t, err)

	empty, err := s.ListMarks(ctx, "doc.md")
	require.NoError(t, err)
	assert.Empty(t, empty)

	second, err := s.CreateMark(ctx, "doc.md", marks.Mark{Start: 6, End: 11, OriginalText: "world", Status: marks.StatusActive})
	require.NoError(t, err)
	first, err := s.CreateMark(ctx, "doc.md", marks.Mark{Start: 0, End: 5, OriginalText: "Hello", Status: marks.StatusActive})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	listed, err := s.ListMarks(ctx, "doc.md")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first, listed[0], "ordered by position")

	second.Start, second.End = 8, 13
	second.Status = marks.StatusNeedsReview
	second.Notes = marks.ReviewNote
	require.NoError(t, s.SaveMarks(ctx, "doc.md", []marks.Mark{second}))

	listed, err = s.ListMarks(ctx, "doc.md")
	require.NoError(t, err)
	assert.Equal(t, second, listed[1])
	assert.Equal(t, "world", listed[1].OriginalText)

	deleted, err := s.DeleteMarks(ctx, "doc.md", []int64{first.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	listed, err = s.ListMarks(ctx, "doc.md")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestSaveMarks_SkipsDeletedMarks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTest(t)

	_, err := s.SaveDocument(ctx, "doc.md", "Hello world")
	require.NoError(t, err)
	mark, err := s.CreateMark(ctx, "doc.md", marks.Mark{Start: 0, End: 5, OriginalText: "Hello", Status: marks.StatusActive})
	require.NoError(t, err)

	moved := mark
	moved.Start, moved.End = 1, 6
	require.NoError(t, s.SaveMarks(ctx, "doc.md", []marks.Mark{moved, {ID: 4242}}))

	listed, err := s.ListMarks(ctx, "doc.md")
	require.NoError(t, err)
	assert.Equal(t, []marks.Mark{moved}, listed)
}

func TestMarksRequireDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTest(t)

	_, err := s.CreateMark(ctx, "missing.md", marks.Mark{Start: 0, End: 1})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.SaveMarks(ctx, "missing.md", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.DeleteMarks(ctx, "missing.md", []int64{1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTest(t)

	_, err := s.SaveDocument(ctx, "doc.md", "v0")
	require.NoError(t, err)
	mark, err := s.CreateMark(ctx, "doc.md", marks.Mark{Start: 0, End: 2, OriginalText: "v0", Status: marks.StatusActive})
	require.NoError(t, err)
	gone, err := s.CreateMark(ctx, "doc.md", marks.Mark{Start: 1, End: 2, OriginalText: "0", Status: marks.StatusActive})
	require.NoError(t, err)

	var seen []marks.Mark
	updated, err := s.Commit(ctx,
		HistoryRecord{ID: "a", Path: "doc.md", Before: "v0", After: "xv1", CreatedAt: time.Unix(100, 0)},
		"xv1",
		func(current []marks.Mark) ([]marks.Mark, error) {
			seen = current
			m := mark
			m.Start, m.End = 1, 3
			return []marks.Mark{m}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []marks.Mark{mark, gone}, seen)
	require.Len(t, updated, 1)

	doc, err := s.LoadDocument(ctx, "doc.md")
	require.NoError(t, err)
	assert.Equal(t, "xv1", doc.Content)

	listed, err := s.ListMarks(ctx, "doc.md")
	require.NoError(t, err)
	assert.Equal(t, 1, listed[0].Start)

	history, err := s.ListHistory(ctx, "doc.md")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "v0", history[0].Before)
}

func TestCommit_NothingWrittenOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTest(t)

	_, err := s.SaveDocument(ctx, "doc.md", "v0")
	require.NoError(t, err)
	mark, err := s.CreateMark(ctx, "doc.md", marks.Mark{Start: 0, End: 2, OriginalText: "v0", Status: marks.StatusActive})
	require.NoError(t, err)

	errReconcile := errors.New("reconcile failed")
	tests := []struct {
		name      string
		before    string
		reconcile ReconcileFunc
		wantErr   error
	}{
		{
			name:   "stale before content",
			before: "older",
			reconcile: func(current []marks.Mark) ([]marks.Mark, error) {
				return current, nil
			},
			wantErr: ErrConflict,
		},
		{
			name:   "reconcile error",
			before: "v0",
			reconcile: func([]marks.Mark) ([]marks.Mark, error) {
				return nil, errReconcile
			},
			wantErr: errReconcile,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := s.Commit(ctx,
				HistoryRecord{ID: testCase.name, Path: "doc.md", Before: testCase.before, After: "v1"},
				"v1", testCase.reconcile)
			require.ErrorIs(t, err, testCase.wantErr)

			doc, err := s.LoadDocument(ctx, "doc.md")
			require.NoError(t, err)
			assert.Equal(t, "v0", doc.Content)

			listed, err := s.ListMarks(ctx, "doc.md")
			require.NoError(t, err)
			assert.Equal(t, []marks.Mark{mark}, listed)

			history, err := s.ListHistory(ctx, "doc.md")
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}

	_, err = s.Commit(ctx, HistoryRecord{ID: "c", Path: "other.md"}, "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTest(t)

	_, err := s.SaveDocument(ctx, "doc.md", "v0")
	require.NoError(t, err)

	keep := func(current []marks.Mark) ([]marks.Mark, error) { return current, nil }
	_, err = s.Commit(ctx, HistoryRecord{ID: "a", Path: "doc.md", Before: "v0", After: "v1", CreatedAt: time.Unix(200, 0)}, "v1", keep)
	require.NoError(t, err)
	_, err = s.Commit(ctx, HistoryRecord{ID: "b", Path: "doc.md", Before: "v1", After: "v2", CreatedAt: time.Unix(100, 0)}, "v2", keep)
	require.NoError(t, err)

	records, err := s.ListHistory(ctx, "doc.md")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].ID, "ordered by creation time")
	assert.Equal(t, "v1", records[1].After)
	assert.True(t, time.Unix(200, 0).Equal(records[1].CreatedAt))
}
