// Package store persists documents, marks, and edit history in SQLite.
//
// Documents are keyed by path. Marks belong to a document and keep their
// cleaned-space positions, original text, and review status. History
// records hold the raw text before and after each committed edit.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yaklabco/annotext/pkg/marks"
)

var (
	// ErrNotFound is returned when a document is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by Commit when the stored document no longer
	// matches the version the change was made against.
	ErrConflict = errors.New("document changed in store")
)

// Schema for the annotation store.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    path        TEXT NOT NULL UNIQUE,
    content     TEXT NOT NULL,
    updated_ns  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS marks (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id     INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    start_pos       INTEGER NOT NULL,
    end_pos         INTEGER NOT NULL,
    original_text   TEXT NOT NULL,
    status          TEXT NOT NULL,
    notes           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_marks_document ON marks(document_id, start_pos);

CREATE TABLE IF NOT EXISTS history (
    id              TEXT PRIMARY KEY,
    document_id     INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    before_content  TEXT NOT NULL,
    after_content   TEXT NOT NULL,
    created_ns      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_document ON history(document_id, created_ns);
`

// Document is a persisted document version.
type Document struct {
	ID        int64
	Path      string
	Content   string
	UpdatedAt time.Time
}

// HistoryRecord is one committed edit.
type HistoryRecord struct {
	ID        string
	Path      string
	Before    string
	After     string
	CreatedAt time.Time
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store represents the SQLite annotation store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadDocument returns the stored document at path, or ErrNotFound.
func (s *Store) LoadDocument(ctx context.Context, path string) (*Document, error) {
	return loadDocument(ctx, s.db, path)
}

func loadDocument(ctx context.Context, q queryer, path string) (*Document, error) {
	var (
		doc       Document
		updatedNs int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, path, content, updated_ns FROM documents WHERE path = ?`, path,
	).Scan(&doc.ID, &doc.Path, &doc.Content, &updatedNs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	doc.UpdatedAt = time.Unix(0, updatedNs)
	return &doc, nil
}

// SaveDocument inserts or replaces the content of the document at path.
func (s *Store) SaveDocument(ctx context.Context, path, content string) (*Document, error) {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, content, updated_ns) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content = excluded.content, updated_ns = excluded.updated_ns`,
		path, content, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return s.LoadDocument(ctx, path)
}

// ListMarks returns the marks of the document at path ordered by
// position. A document without marks yields an empty slice.
func (s *Store) ListMarks(ctx context.Context, path string) ([]marks.Mark, error) {
	return listMarks(ctx, s.db, path)
}

func listMarks(ctx context.Context, q queryer, path string) ([]marks.Mark, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT m.id, m.start_pos, m.end_pos, m.original_text, m.status, m.notes
		FROM marks m JOIN documents d ON d.id = m.document_id
		WHERE d.path = ?
		ORDER BY m.start_pos ASC, m.id ASC`, path,
	)
	if err != nil {
		return nil, fmt.Errorf("query marks: %w", err)
	}
	defer rows.Close()

	result := []marks.Mark{}
	for rows.Next() {
		var (
			m      marks.Mark
			status string
		)
		if err := rows.Scan(&m.ID, &m.Start, &m.End, &m.OriginalText, &status, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		m.Status = marks.Status(status)
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marks: %w", err)
	}

	return result, nil
}

// CreateMark stores a new mark on the document at path and returns it
// with its assigned ID. The document must exist.
func (s *Store) CreateMark(ctx context.Context, path string, mark marks.Mark) (marks.Mark, error) {
	doc, err := s.LoadDocument(ctx, path)
	if err != nil {
		return marks.Mark{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO marks (document_id, start_pos, end_pos, original_text, status, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, mark.Start, mark.End, mark.OriginalText, string(mark.Status), mark.Notes,
	)
	if err != nil {
		return marks.Mark{}, fmt.Errorf("insert mark: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return marks.Mark{}, fmt.Errorf("get last insert id: %w", err)
	}

	mark.ID = id
	return mark, nil
}

// SaveMarks updates the positions, status, and notes of existing marks
// in one transaction. Marks no longer in the store are skipped.
func (s *Store) SaveMarks(ctx context.Context, path string, updated []marks.Mark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	doc, err := loadDocument(ctx, tx, path)
	if err != nil {
		return err
	}
	if err := updateMarks(ctx, tx, doc.ID, updated); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func updateMarks(ctx context.Context, tx *sql.Tx, documentID int64, updated []marks.Mark) error {
	if len(updated) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE marks SET start_pos = ?, end_pos = ?, status = ?, notes = ?
		WHERE id = ? AND document_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range updated {
		if _, err := stmt.ExecContext(ctx, m.Start, m.End, string(m.Status), m.Notes, m.ID, documentID); err != nil {
			return fmt.Errorf("update mark %d: %w", m.ID, err)
		}
	}
	return nil
}

// ReconcileFunc maps the marks currently stored for a document to their
// updated state.
type ReconcileFunc func(current []marks.Mark) ([]marks.Mark, error)

// Commit stores content as the new version of the document at
// record.Path, updates its marks with reconcile, and records the
// history entry, all in one transaction. The stored content must equal
// record.Before, otherwise ErrConflict is returned and nothing is
// written. reconcile sees the marks as stored when the transaction
// starts, so marks added or deleted by other writers are accounted for.
// The updated marks are returned.
func (s *Store) Commit(ctx context.Context, record HistoryRecord, content string, reconcile ReconcileFunc) ([]marks.Mark, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	doc, err := loadDocument(ctx, tx, record.Path)
	if err != nil {
		return nil, err
	}
	if doc.Content != record.Before {
		return nil, fmt.Errorf("document %s: %w", record.Path, ErrConflict)
	}

	current, err := listMarks(ctx, tx, record.Path)
	if err != nil {
		return nil, err
	}
	updated, err := reconcile(current)
	if err != nil {
		return nil, err
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET content = ?, updated_ns = ? WHERE id = ?`,
		content, s.now().UnixNano(), doc.ID,
	); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := updateMarks(ctx, tx, doc.ID, updated); err != nil {
		return nil, err
	}
	if err := insertHistory(ctx, tx, doc.ID, record, createdAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return updated, nil
}

// DeleteMarks removes marks by ID from the document at path and returns
// how many were deleted.
func (s *Store) DeleteMarks(ctx context.Context, path string, ids []int64) (int64, error) {
	doc, err := s.LoadDocument(ctx, path)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var deleted int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM marks WHERE id = ? AND document_id = ?`, id, doc.ID)
		if err != nil {
			return 0, fmt.Errorf("delete mark %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return deleted, nil
}

func insertHistory(ctx context.Context, q queryer, documentID int64, record HistoryRecord, createdAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO history (id, document_id, before_content, after_content, created_ns)
		VALUES (?, ?, ?, ?, ?)`,
		record.ID, documentID, record.Before, record.After, createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListHistory returns the edits of the document at path, oldest first.
func (s *Store) ListHistory(ctx context.Context, path string) ([]HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, d.path, h.before_content, h.after_content, h.created_ns
		FROM history h JOIN documents d ON d.id = h.document_id
		WHERE d.path = ?
		ORDER BY h.created_ns ASC`, path,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var (
			r         HistoryRecord
			createdNs int64
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.Before, &r.After, &createdNs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdNs)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return records, nil
}
