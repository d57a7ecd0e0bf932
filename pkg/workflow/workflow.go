// Package workflow ties position reconciliation to persistence. A Session
// holds one document's spaces and marks and turns user actions (select,
// mark, edit, sync) into validated positions and committed store updates.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/yaklabco/annotext/pkg/dom"
	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/linktok"
	"github.com/yaklabco/annotext/pkg/marks"
	"github.com/yaklabco/annotext/pkg/selection"
	"github.com/yaklabco/annotext/pkg/spaces"
	"github.com/yaklabco/annotext/pkg/store"
	"github.com/yaklabco/annotext/pkg/textpos"
)

// Store is the persistence a Session needs. *store.Store implements it.
type Store interface {
	LoadDocument(ctx context.Context, path string) (*store.Document, error)
	SaveDocument(ctx context.Context, path, content string) (*store.Document, error)
	ListMarks(ctx context.Context, path string) ([]marks.Mark, error)
	CreateMark(ctx context.Context, path string, mark marks.Mark) (marks.Mark, error)
	SaveMarks(ctx context.Context, path string, updated []marks.Mark) error
	Commit(ctx context.Context, record store.HistoryRecord, content string, reconcile store.ReconcileFunc) ([]marks.Mark, error)
}

// ExclusionFunc returns the raw ranges left out of cleaned text.
// (*exclude.Detector).Ranges satisfies it.
type ExclusionFunc func(ctx context.Context, raw []byte) ([]textpos.Range, error)

// Session is an open document.
type Session struct {
	path       string
	store      Store
	exclusions ExclusionFunc
	selectOpts []selection.Option
	logger     *log.Logger
	now        func() time.Time

	spaces *spaces.Spaces
	marks  []marks.Mark
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExclusions sets the provider of excluded ranges. Without one the
// whole document is cleaned text.
func WithExclusions(fn ExclusionFunc) Option {
	return func(s *Session) {
		s.exclusions = fn
	}
}

// WithSelectionOptions sets the options passed to selection.Validate.
func WithSelectionOptions(opts ...selection.Option) Option {
	return func(s *Session) {
		s.selectOpts = append(s.selectOpts, opts...)
	}
}

// Open loads the stored document at path with its marks.
func Open(ctx context.Context, st Store, path string, opts ...Option) (*Session, error) {
	s := newSession(st, path, opts)

	doc, err := st.LoadDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := s.load(ctx, doc.Content); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenOrImport opens the stored document at path, first storing content
// as its initial version when the store does not have it yet.
func OpenOrImport(ctx context.Context, st Store, path, content string, opts ...Option) (*Session, error) {
	s, err := Open(ctx, st, path, opts...)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return s, err
	}

	if _, err := st.SaveDocument(ctx, path, content); err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return Open(ctx, st, path, opts...)
}

func newSession(st Store, path string, opts []Option) *Session {
	s := &Session{
		path:   path,
		store:  st,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) load(ctx context.Context, raw string) error {
	sp, err := s.derive(ctx, raw)
	if err != nil {
		return err
	}

	loaded, err := s.store.ListMarks(ctx, s.path)
	if err != nil {
		return fmt.Errorf("load marks: %w", err)
	}

	s.spaces = sp
	s.marks = loaded
	s.logger.Debug("document opened", "path", s.path,
		"cleaned_len", sp.Cleaned.Len(), "excluded", len(sp.Excluded), "marks", len(loaded))
	return nil
}

func (s *Session) derive(ctx context.Context, raw string) (*spaces.Spaces, error) {
	var excluded []textpos.Range
	if s.exclusions != nil {
		ranges, err := s.exclusions(ctx, []byte(raw))
		if err != nil {
			return nil, fmt.Errorf("detect exclusions: %w", err)
		}
		excluded = ranges
	}

	sp, err := spaces.Derive(raw, excluded)
	if err != nil {
		return nil, fmt.Errorf("derive spaces: %w", err)
	}
	return sp, nil
}

// Path returns the document path.
func (s *Session) Path() string { return s.path }

// Spaces returns the current text spaces. Callers must not modify them.
func (s *Session) Spaces() *spaces.Spaces { return s.spaces }

// Marks returns a copy of the document's marks.
func (s *Session) Marks() []marks.Mark { return slices.Clone(s.marks) }

// Stale returns the IDs of active marks whose text no longer matches.
func (s *Session) Stale() []int64 {
	return marks.Verify(s.marks, s.spaces.Cleaned)
}

// DOM builds the display tree of the current rendered text.
func (s *Session) DOM() *dom.Node {
	return dom.Build(s.spaces)
}

// Selection is a validated user selection.
type Selection struct {
	Snapshot selection.Snapshot
	Result   selection.Result

	// Raw is the corrected range in the persisted document.
	Raw textpos.Range

	// Text is the cleaned text of the corrected range.
	Text string

	// RenderedText is what the reader sees for the corrected range.
	RenderedText string

	// Overlap lists the marks the selection touches.
	Overlap marks.OverlapResult
}

// Select validates a selection made in rendered space.
func (s *Session) Select(renderedStart, renderedEnd int) Selection {
	sp := s.spaces
	snapshot := selection.NewSnapshot(renderedStart, renderedEnd, sp)

	conv := sp.Converter()
	opts := append([]selection.Option{selection.WithLogger(s.logger)}, s.selectOpts...)
	result := selection.Validate(snapshot, sp.Cleaned, sp.Rendered,
		conv.ToCleanedFunc(), conv.ToRenderedFunc(), opts...)

	cleaned := result.Cleaned()
	rendered := result.Rendered()
	return Selection{
		Snapshot:     snapshot,
		Result:       result,
		Raw:          rawRange(sp, cleaned),
		Text:         sp.Cleaned.Substring(cleaned.Start, cleaned.End),
		RenderedText: sp.Rendered.Substring(rendered.Start, rendered.End),
		Overlap:      marks.DetectOverlap(cleaned, s.marks),
	}
}

// rawRange maps a cleaned range into raw space. Excluded blocks at either
// edge stay outside the result.
func rawRange(sp *spaces.Spaces, r textpos.Range) textpos.Range {
	start := sp.CleanedToRaw(r.Start)
	if r.IsEmpty() {
		return textpos.Range{Start: start, End: start}
	}
	return textpos.Range{Start: start, End: sp.CleanedToRaw(r.End-1) + 1}
}

// SelectDOM validates the browser-style selection sel inside container,
// which must be a tree built from this session's rendered text.
func (s *Session) SelectDOM(container *dom.Node, sel *dom.Selection, mapper *dom.Mapper) (Selection, error) {
	start, end, err := mapper.SelectionOffsets(container, sel)
	if err != nil && !errors.Is(err, dom.ErrCollapsedSelection) {
		return Selection{}, fmt.Errorf("map selection: %w", err)
	}
	if err != nil {
		s.logger.Warn("selection collapsed while mapping", "offset", start)
	}
	return s.Select(start, end), nil
}

// AddMark stores a new active mark over the cleaned range r.
func (s *Session) AddMark(ctx context.Context, r textpos.Range) (marks.Mark, error) {
	mark, err := marks.New(0, s.spaces.Cleaned, r)
	if err != nil {
		return marks.Mark{}, err
	}

	created, err := s.store.CreateMark(ctx, s.path, mark)
	if err != nil {
		return marks.Mark{}, fmt.Errorf("store mark: %w", err)
	}

	s.marks = append(s.marks, created)
	s.logger.Debug("mark added", "mark_id", created.ID, "range", r.String())
	return created, nil
}

// ErrDocumentChanged is returned by ReplaceCleaned when another session
// committed a new version since this one was loaded. The session is
// reloaded and the caller must recompute its range.
var ErrDocumentChanged = errors.New("document changed since it was opened")

// refresh reloads the stored document and its marks so that changes
// committed by other sessions are seen. It reports whether the document
// content changed.
func (s *Session) refresh(ctx context.Context) (bool, error) {
	doc, err := s.store.LoadDocument(ctx, s.path)
	if err != nil {
		return false, fmt.Errorf("reload %s: %w", s.path, err)
	}

	changed := doc.Content != s.spaces.Raw.String()
	if changed {
		s.logger.Debug("stored document changed, reloading", "path", s.path)
		return true, s.load(ctx, doc.Content)
	}
	return false, s.refreshMarks(ctx)
}

func (s *Session) refreshMarks(ctx context.Context) error {
	loaded, err := s.store.ListMarks(ctx, s.path)
	if err != nil {
		return fmt.Errorf("load marks: %w", err)
	}
	s.marks = loaded
	return nil
}

// ResolveMarks marks the given marks as active again and clears their
// review notes. Unknown IDs are ignored. It returns the resolved marks.
func (s *Session) ResolveMarks(ctx context.Context, ids []int64) ([]marks.Mark, error) {
	if err := s.refreshMarks(ctx); err != nil {
		return nil, err
	}

	var resolved []marks.Mark
	for i, mark := range s.marks {
		if !slices.Contains(ids, mark.ID) {
			continue
		}
		mark.Status = marks.StatusActive
		mark.Notes = ""
		s.marks[i] = mark
		resolved = append(resolved, mark)
	}

	if err := s.store.SaveMarks(ctx, s.path, resolved); err != nil {
		return nil, fmt.Errorf("save marks: %w", err)
	}
	s.logger.Debug("marks resolved", "path", s.path, "marks", len(resolved))
	return resolved, nil
}

// HistoryEntry identifies one committed change of a document.
type HistoryEntry struct {
	ID        uuid.UUID
	Path      string
	Before    string
	After     string
	Region    edit.Region
	CreatedAt time.Time
}

// Commit is the outcome of ReplaceCleaned or Sync.
type Commit struct {
	// Changed is false when the new document equals the stored one and
	// nothing was written.
	Changed bool

	History HistoryEntry

	// Overlap lists the marks the edit touched, computed before it was
	// applied.
	Overlap marks.OverlapResult

	Reconciliation marks.Result
}

// ReplaceCleaned replaces the cleaned range r with text and commits the
// resulting document.
func (s *Session) ReplaceCleaned(ctx context.Context, r textpos.Range, text string) (Commit, error) {
	changed, err := s.refresh(ctx)
	if err != nil {
		return Commit{}, err
	}
	if changed {
		return Commit{}, fmt.Errorf("edit %s: %w", s.path, ErrDocumentChanged)
	}

	overlap := marks.DetectOverlap(r, s.marks)
	if overlap.HasOverlap() {
		s.logger.Warn("edit overlaps marks", "range", r.String(), "marks", overlap.OverlappingIDs)
	}

	next, err := s.spaces.ReplaceCleaned(r, text)
	if err != nil {
		return Commit{}, err
	}

	return s.commit(ctx, next, overlap)
}

// LinkTextEdit returns the cleaned-space edit that rewrites the display
// text of the first link touched by the cleaned range r, keeping its URL.
// It fails with linktok.ErrInvalidLink when r touches no link.
func (s *Session) LinkTextEdit(r textpos.Range, text string) (edit.TextEdit, error) {
	for _, link := range s.spaces.Links {
		span := link.Range()
		if !touches(span, r) {
			continue
		}

		updated, err := linktok.UpdateLinkText(s.spaces.Cleaned, span, text)
		if err != nil {
			return edit.TextEdit{}, err
		}
		end := span.End + len(updated) - len(s.spaces.Cleaned)
		return edit.TextEdit{Start: span.Start, End: span.End, NewText: updated.Slice(span.Start, end).String()}, nil
	}
	return edit.TextEdit{}, fmt.Errorf("no link at %s: %w", r, linktok.ErrInvalidLink)
}

// UpdateLinkText rewrites the display text of the link touched by the
// cleaned range r and commits the result.
func (s *Session) UpdateLinkText(ctx context.Context, r textpos.Range, text string) (Commit, error) {
	e, err := s.LinkTextEdit(r, text)
	if err != nil {
		return Commit{}, err
	}
	return s.ReplaceCleaned(ctx, e.Range(), e.NewText)
}

// touches reports whether r overlaps span, or lies inside it when empty.
func touches(span, r textpos.Range) bool {
	if r.IsEmpty() {
		return r.Start > span.Start && r.Start < span.End
	}
	return span.Overlaps(r)
}

// Sync commits raw as the new version of the document, reconciling marks
// with whatever changed in cleaned space.
func (s *Session) Sync(ctx context.Context, raw string) (Commit, error) {
	if _, err := s.refresh(ctx); err != nil {
		return Commit{}, err
	}
	next, err := s.derive(ctx, raw)
	if err != nil {
		return Commit{}, err
	}

	region := edit.Detect(s.spaces.Cleaned, next.Cleaned)
	overlap := marks.DetectOverlap(region.Range(), s.marks)
	return s.commit(ctx, next, overlap)
}

func (s *Session) commit(ctx context.Context, next *spaces.Spaces, overlap marks.OverlapResult) (Commit, error) {
	prev := s.spaces
	if prev.Raw.Equal(next.Raw) {
		return Commit{Overlap: overlap, Reconciliation: marks.Result{Marks: s.Marks()}}, nil
	}

	region := edit.Detect(prev.Cleaned, next.Cleaned)
	entry := HistoryEntry{
		ID:        uuid.New(),
		Path:      s.path,
		Before:    prev.Raw.String(),
		After:     next.Raw.String(),
		Region:    region,
		CreatedAt: s.now(),
	}

	var reconciled marks.Result
	_, err := s.store.Commit(ctx, store.HistoryRecord{
		ID:        entry.ID.String(),
		Path:      entry.Path,
		Before:    entry.Before,
		After:     entry.After,
		CreatedAt: entry.CreatedAt,
	}, entry.After, func(current []marks.Mark) ([]marks.Mark, error) {
		result, err := marks.Update(current, region, region.InsertedText)
		if err != nil {
			return nil, fmt.Errorf("reconcile marks: %w", err)
		}
		reconciled = result
		return result.Marks, nil
	})
	if err != nil {
		return Commit{}, fmt.Errorf("commit %s: %w", s.path, err)
	}

	s.spaces = next
	s.marks = reconciled.Marks

	s.logger.Debug("change committed", "path", s.path, "history_id", entry.ID,
		"region", region.String(), "shifted", len(reconciled.Shifted),
		"flagged", len(reconciled.FlaggedForReview))

	return Commit{
		Changed:        true,
		History:        entry,
		Overlap:        overlap,
		Reconciliation: reconciled,
	}, nil
}
