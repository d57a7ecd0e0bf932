package runner_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yaklabco/annotext/pkg/marks"
	"github.com/yaklabco/annotext/pkg/runner"
	"github.com/yaklabco/annotext/pkg/workflow"
)

var errBroken = errors.New("broken")

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, "a.md", "b.md", "c.md", "d.md")

	fn := func(_ context.Context, path string) (workflow.Commit, error) {
		switch filepath.Base(path) {
		case "a.md":
			return workflow.Commit{}, nil
		case "b.md":
			return workflow.Commit{Changed: true, Reconciliation: marks.Result{Shifted: []int64{1, 2}}}, nil
		case "c.md":
			return workflow.Commit{Changed: true, Reconciliation: marks.Result{FlaggedForReview: []int64{3}}}, nil
		default:
			return workflow.Commit{}, errBroken
		}
	}

	result, err := runner.New(fn).Run(context.Background(), runner.Options{WorkingDir: dir, Jobs: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := runner.Stats{
		FilesDiscovered: 4,
		FilesChanged:    2,
		FilesUnchanged:  1,
		FilesErrored:    1,
		MarksShifted:    2,
		MarksFlagged:    1,
	}
	if result.Stats != want {
		t.Errorf("Stats = %+v, want %+v", result.Stats, want)
	}

	got := relAll(t, dir, pathsOf(result))
	if wantOrder := []string{"a.md", "b.md", "c.md", "d.md"}; !slices.Equal(got, wantOrder) {
		t.Errorf("outcome order = %v, want %v", got, wantOrder)
	}
	if !errors.Is(result.Files[3].Error, errBroken) {
		t.Errorf("d.md error = %v, want %v", result.Files[3].Error, errBroken)
	}
	if !result.NeedsReview() || !result.HasErrors() {
		t.Error("expected NeedsReview and HasErrors")
	}
}

func TestRunner_Run_NoFiles(t *testing.T) {
	t.Parallel()

	called := false
	result, err := runner.New(func(context.Context, string) (workflow.Commit, error) {
		called = true
		return workflow.Commit{}, nil
	}).Run(context.Background(), runner.Options{WorkingDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called || len(result.Files) != 0 {
		t.Error("expected no work for an empty directory")
	}
	if result.NeedsReview() || result.HasErrors() {
		t.Error("empty result should report nothing")
	}
}

func TestRunner_Run_GroupsAreSerial(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, "one/a.md", "one/b.md", "one/c.md", "two/a.md", "two/b.md")

	var (
		mu     sync.Mutex
		active = map[string]int{}
		peak   atomic.Int32
	)

	fn := func(_ context.Context, path string) (workflow.Commit, error) {
		group := filepath.Dir(path)

		mu.Lock()
		active[group]++
		if n := active[group]; int32(n) > peak.Load() {
			peak.Store(int32(n))
		}
		mu.Unlock()

		mu.Lock()
		active[group]--
		mu.Unlock()
		return workflow.Commit{}, nil
	}

	result, err := runner.New(fn).Run(context.Background(), runner.Options{
		WorkingDir: dir,
		Jobs:       4,
		GroupKey:   filepath.Dir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Files) != 5 {
		t.Fatalf("got %d outcomes, want 5", len(result.Files))
	}
	if peak.Load() != 1 {
		t.Errorf("files of one group ran concurrently (peak %d)", peak.Load())
	}
}

func TestRunner_Run_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.New(func(context.Context, string) (workflow.Commit, error) {
		return workflow.Commit{}, nil
	}).Run(ctx, runner.Options{WorkingDir: writeTree(t, "a.md")})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func pathsOf(result *runner.Result) []string {
	paths := make([]string, len(result.Files))
	for i, f := range result.Files {
		paths[i] = f.Path
	}
	return paths
}
