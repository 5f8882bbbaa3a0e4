// Package sqlite persists annotated corpora in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/annotext/annotext/pkg/annotext/corpus"
	"github.com/annotext/annotext/pkg/annotext/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes the
// schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS spans (
	doc_id TEXT NOT NULL,
	start_char INTEGER NOT NULL,
	end_char INTEGER NOT NULL,
	label TEXT NOT NULL,
	entity TEXT NOT NULL,
	UNIQUE(doc_id, start_char, end_char, label),
	FOREIGN KEY(doc_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_spans_label ON spans(label);
CREATE INDEX IF NOT EXISTS idx_spans_entity ON spans(entity);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	documents INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	spans INTEGER NOT NULL,
	patterns INTEGER NOT NULL
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveDocument inserts or updates a document and replaces its spans.
func (s *sqliteStore) SaveDocument(ctx context.Context, d corpus.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertDocument(ctx, tx, d); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveCorpus persists a whole corpus in one transaction.
func (s *sqliteStore) SaveCorpus(ctx context.Context, docs []corpus.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range docs {
		if err := upsertDocument(ctx, tx, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertDocument(ctx context.Context, tx *sql.Tx, d corpus.Document) error {
	const stmt = `
INSERT INTO documents (id, text) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET text=excluded.text;
`
	if _, err := tx.ExecContext(ctx, stmt, d.ID, d.Text); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM spans WHERE doc_id=?`, d.ID); err != nil {
		return err
	}
	if len(d.Spans) == 0 {
		return nil
	}
	ins, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO spans (doc_id, start_char, end_char, label, entity)
VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()
	for _, span := range d.Spans {
		entity := strings.ToLower(corpus.Substring(d.Text, span))
		if _, err := ins.ExecContext(ctx, d.ID, span.Start, span.End, span.Label, entity); err != nil {
			return err
		}
	}
	return nil
}

// GetDocument returns a document with its spans.
func (s *sqliteStore) GetDocument(ctx context.Context, id string) (corpus.Document, bool, error) {
	var doc corpus.Document
	err := s.db.QueryRowContext(ctx, `SELECT id, text FROM documents WHERE id=?`, id).
		Scan(&doc.ID, &doc.Text)
	if err == sql.ErrNoRows {
		return corpus.Document{}, false, nil
	}
	if err != nil {
		return corpus.Document{}, false, err
	}
	spans, err := s.docSpans(ctx, id)
	if err != nil {
		return corpus.Document{}, false, err
	}
	doc.Spans = spans
	return doc, true, nil
}

func (s *sqliteStore) docSpans(ctx context.Context, id string) ([]corpus.Span, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT start_char, end_char, label FROM spans
WHERE doc_id=? ORDER BY start_char, end_char, label`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spans []corpus.Span
	for rows.Next() {
		var span corpus.Span
		if err := rows.Scan(&span.Start, &span.End, &span.Label); err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, rows.Err()
}

// LoadCorpus returns every stored document with its spans, ordered by id.
func (s *sqliteStore) LoadCorpus(ctx context.Context) ([]corpus.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text FROM documents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []corpus.Document
	for rows.Next() {
		var doc corpus.Document
		if err := rows.Scan(&doc.ID, &doc.Text); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range docs {
		spans, err := s.docSpans(ctx, docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Spans = spans
	}
	return docs, nil
}

// DocsByLabel returns the ids of documents carrying at least one span with
// the label.
func (s *sqliteStore) DocsByLabel(ctx context.Context, label string) ([]string, error) {
	return s.queryIDs(ctx, `SELECT DISTINCT doc_id FROM spans WHERE label=? ORDER BY doc_id`, label)
}

// DocsByEntity returns the ids of documents containing the text as an
// annotated span. Lookup is case-insensitive.
func (s *sqliteStore) DocsByEntity(ctx context.Context, entity string) ([]string, error) {
	return s.queryIDs(ctx, `SELECT DISTINCT doc_id FROM spans WHERE entity=? ORDER BY doc_id`,
		strings.ToLower(entity))
}

func (s *sqliteStore) queryIDs(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordRun appends a run to the history.
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, started_at, documents, skipped, spans, patterns)
VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Documents, r.Skipped, r.Spans, r.Patterns)
	return err
}

// Runs returns the run history, newest first.
func (s *sqliteStore) Runs(ctx context.Context) ([]store.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, documents, skipped, spans, patterns
FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var r store.Run
		var ts string
		if err := rows.Scan(&r.ID, &ts, &r.Documents, &r.Skipped, &r.Spans, &r.Patterns); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			r.StartedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
