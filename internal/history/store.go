// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives pipeline outcomes in a SQLite database so past
// runs can be listed, inspected, and exported. The pipeline never reads
// from it.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrNotFound is returned by Get when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const defaultListLimit = 20

// Record is one archived run.
type Record struct {
	ID        string                `json:"id" yaml:"id"`
	Question  string                `json:"question" yaml:"question"`
	Model     string                `json:"model,omitempty" yaml:"model,omitempty"`
	CreatedAt time.Time             `json:"created_at" yaml:"created_at"`
	Outcome   types.ResearchOutcome `json:"outcome" yaml:"outcome"`
}

// ListOptions filters List and Export.
type ListOptions struct {
	// Limit caps the number of records. Zero means 20; negative means no cap.
	Limit int

	// Contains keeps runs whose question includes this text, ignoring case.
	Contains string
}

// Store manages the run archive.
type Store struct {
	db *sql.DB

	// now stamps new records.
	now func() time.Time
}

// NewStore opens or creates the archive at cfg.DBPath and ensures the schema
// exists.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			model TEXT,
			mode TEXT NOT NULL,
			success INTEGER NOT NULL,
			answer TEXT,
			error TEXT,
			trace TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			snippet TEXT,
			PRIMARY KEY (run_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save archives outcome and returns the stored record with its new ID.
// Sources are not stored; they are rebuilt from the evidence on read.
func (s *Store) Save(ctx context.Context, question, model string, outcome types.ResearchOutcome) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		Question:  question,
		Model:     model,
		CreatedAt: s.now().UTC(),
		Outcome:   outcome,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, question, model, mode, success, answer, error, trace, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, question, model, string(outcome.Mode), outcome.Success,
		outcome.Answer, outcome.Error, outcome.Trace, rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Record{}, fmt.Errorf("inserting run: %w", err)
	}

	if len(outcome.Evidence) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO evidence (run_id, position, title, url, snippet) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return Record{}, fmt.Errorf("preparing evidence insert: %w", err)
		}
		defer stmt.Close()

		for i, r := range outcome.Evidence {
			if _, err := stmt.ExecContext(ctx, rec.ID, i, r.Title, r.URL, r.Snippet); err != nil {
				return Record{}, fmt.Errorf("inserting evidence %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("committing run: %w", err)
	}
	return rec, nil
}

// Get returns the run with the given ID. A unique ID prefix of at least
// eight characters is also accepted.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrNotFound
	}

	query := selectRuns + ` WHERE id = ?`
	args := []any{id}
	if len(id) >= 8 && len(id) < 36 {
		query = selectRuns + ` WHERE id LIKE ? ESCAPE '\'`
		args = []any{escapeLike(id) + "%"}
	}

	recs, err := s.queryRuns(ctx, query+` LIMIT 2`, args...)
	if err != nil {
		return Record{}, err
	}
	switch len(recs) {
	case 0:
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return recs[0], nil
	default:
		return Record{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)
	if c := strings.TrimSpace(opts.Contains); c != "" {
		clauses = append(clauses, `lower(question) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(c))+"%")
	}

	query := selectRuns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	limit := opts.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryRuns(ctx, query, args...)
}

const selectRuns = `SELECT id, question, model, mode, success, answer, error, trace, created_at FROM runs`

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var (
			rec                        Record
			model, answer, errs, trace sql.NullString
			mode, created              string
		)
		if err := rows.Scan(&rec.ID, &rec.Question, &model, &mode, &rec.Outcome.Success,
			&answer, &errs, &trace, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.Model = model.String
		rec.Outcome.Mode = types.Mode(mode)
		rec.Outcome.Answer = answer.String
		rec.Outcome.Error = errs.String
		rec.Outcome.Trace = trace.String
		rec.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for run %s: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	rows.Close()

	for i := range recs {
		ev, err := s.loadEvidence(ctx, recs[i].ID)
		if err != nil {
			return nil, err
		}
		recs[i].Outcome.Evidence = ev
		recs[i].Outcome.Sources = ev.URLs()
	}
	return recs, nil
}

func (s *Store) loadEvidence(ctx context.Context, runID string) (types.EvidenceSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, url, snippet FROM evidence WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying evidence for run %s: %w", runID, err)
	}
	defer rows.Close()

	var ev types.EvidenceSet
	for rows.Next() {
		var (
			r       types.SearchResult
			snippet sql.NullString
		)
		if err := rows.Scan(&r.Title, &r.URL, &snippet); err != nil {
			return nil, fmt.Errorf("scanning evidence: %w", err)
		}
		r.Snippet = snippet.String
		ev = append(ev, r)
	}
	return ev, rows.Err()
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
