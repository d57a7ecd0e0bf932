package runner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/annotext/pkg/workflow"
)

// SyncFunc syncs the document at path with its store.
type SyncFunc func(ctx context.Context, path string) (workflow.Commit, error)

// Runner syncs discovered documents with a bounded pool of workers.
type Runner struct {
	Sync SyncFunc
}

// New returns a Runner syncing each document with fn.
func New(fn SyncFunc) *Runner {
	return &Runner{Sync: fn}
}

// Run discovers the documents of opts and syncs them. Documents sharing a
// group key are synced one after another in path order; groups run
// concurrently. A failed sync is recorded in its outcome and does not stop
// the others. Outcomes are in path order.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Files: make([]FileOutcome, 0, len(files))}
	result.Stats.FilesDiscovered = len(files)
	if len(files) == 0 {
		return result, nil
	}

	outcomes := make([]FileOutcome, len(files))
	done := make([]bool, len(files))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	for _, group := range groupFiles(files, opts) {
		g.Go(func() error {
			for _, i := range group {
				if ctx.Err() != nil {
					return nil
				}
				commit, err := r.Sync(ctx, files[i])
				outcomes[i] = FileOutcome{Path: files[i], Commit: commit, Error: err}
				done[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, outcome := range outcomes {
		if done[i] {
			result.accumulate(outcome)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run cancelled: %w", err)
	}
	return result, nil
}

// groupFiles splits the indexes of files by group key, in order of first
// appearance.
func groupFiles(files []string, opts Options) [][]int {
	index := make(map[string]int)
	var groups [][]int
	for i, path := range files {
		key := opts.groupKey(path)
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
