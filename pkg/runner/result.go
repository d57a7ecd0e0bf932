package runner

import "github.com/yaklabco/annotext/pkg/workflow"

// FileOutcome is the result of syncing one document.
type FileOutcome struct {
	// Path is the absolute document path.
	Path string

	// Commit is the sync outcome. Zero when Error is set.
	Commit workflow.Commit

	// Error is set if the document could not be synced.
	Error error
}

// Stats captures aggregate information about a run.
type Stats struct {
	FilesDiscovered int
	FilesChanged    int
	FilesUnchanged  int
	FilesErrored    int
	MarksShifted    int
	MarksFlagged    int
}

// Result is the overall runner result.
type Result struct {
	// Files holds one outcome per discovered file, in path order.
	Files []FileOutcome

	Stats Stats
}

// NeedsReview reports whether any sync flagged marks for review.
func (r *Result) NeedsReview() bool {
	return r != nil && r.Stats.MarksFlagged > 0
}

// HasErrors reports whether any file failed to sync.
func (r *Result) HasErrors() bool {
	return r != nil && r.Stats.FilesErrored > 0
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	if !outcome.Commit.Changed {
		r.Stats.FilesUnchanged++
		return
	}

	r.Stats.FilesChanged++
	r.Stats.MarksShifted += len(outcome.Commit.Reconciliation.Shifted)
	r.Stats.MarksFlagged += len(outcome.Commit.Reconciliation.FlaggedForReview)
}
