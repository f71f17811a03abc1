// Package journal records pipeline runs in a local SQLite database: one row
// per run with its outcome and sync counters. The journal is bookkeeping for
// the operator (`panda runs`), not a source of truth — artifact state lives
// entirely in the storage backend.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    pipeline TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    fetched INTEGER NOT NULL DEFAULT 0,
    deleted INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`

// Run states.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const timeFormat = time.RFC3339

// Run is one journal row.
type Run struct {
	ID         string
	Pipeline   string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is open
	Fetched    int
	Deleted    int
	Failed     int
}

// Journal is an open run journal.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database under dir.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "journal.db"))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin records the start of a pipeline run and returns its ID.
func (j *Journal) Begin(ctx context.Context, pipeline string) (string, error) {
	id := newRunID()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, pipeline, status, started_at) VALUES (?, ?, ?, ?)`,
		id, pipeline, StatusRunning, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// Finish closes a run with its final status and counters.
func (j *Journal) Finish(ctx context.Context, runID, status string, fetched, deleted, failed int) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, fetched = ?, deleted = ?, failed = ?
		 WHERE run_id = ?`,
		status, time.Now().UTC().Format(timeFormat), fetched, deleted, failed, runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("unknown run %q", runID)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, pipeline, status, started_at, finished_at, fetched, deleted, failed
	          FROM runs ORDER BY started_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Pipeline, &r.Status, &started, &finished,
			&r.Fetched, &r.Deleted, &r.Failed); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(timeFormat, started); err != nil {
			return nil, fmt.Errorf("run %s: bad started_at: %w", r.ID, err)
		}
		if finished.Valid {
			if r.FinishedAt, err = time.Parse(timeFormat, finished.String); err != nil {
				return nil, fmt.Errorf("run %s: bad finished_at: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// newRunID generates a UUID v7 run ID, falling back to v4 if v7 generation
// fails.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
