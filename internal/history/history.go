// Package history keeps one row per compliance run in a local SQLite database.
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

	_ "modernc.org/sqlite"

	"github.com/ppiankov/specguard/internal/compliance"
)

// RelPath is the database location relative to the project root.
const RelPath = ".specify/.cache/history.db"

// DefaultPath returns the history database path for projectRoot.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, filepath.FromSlash(RelPath))
}

// Run is one recorded compliance run.
type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Guides     int       `json:"guides"`
	Branch     string    `json:"branch,omitempty"`
	Total      int       `json:"total"`
	Pass       int       `json:"passed"`
	Fail       int       `json:"failed"`
	Waived     int       `json:"waived"`
	Error      int       `json:"errors"`
	Verdict    string    `json:"verdict"`
}

// NewRun builds a run record from tallied results.
func NewRun(started time.Time, d time.Duration, guides int, branch string, c compliance.Counts, verdict string) Run {
	return Run{
		StartedAt:  started.UTC(),
		DurationMS: d.Milliseconds(),
		Guides:     guides,
		Branch:     branch,
		Total:      c.Total,
		Pass:       c.Pass,
		Fail:       c.Fail,
		Waived:     c.Waived,
		Error:      c.Error,
		Verdict:    verdict,
	}
}

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing history path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Single-process local DB.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

// Close closes the database. Safe on a nil store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends a run and returns its row id.
func (s *Store) Record(ctx context.Context, r Run) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("history not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO runs (started_at_unix_ms, duration_ms, guides, branch, total, passed, failed, waived, errors, verdict)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, r.StartedAt.UnixMilli(), r.DurationMS, r.Guides, r.Branch, r.Total, r.Pass, r.Fail, r.Waived, r.Error, r.Verdict)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at_unix_ms, duration_ms, guides, branch, total, passed, failed, waived, errors, verdict
FROM runs
ORDER BY started_at_unix_ms DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var startedMS int64
		if err := rows.Scan(
			&r.ID,
			&startedMS,
			&r.DurationMS,
			&r.Guides,
			&r.Branch,
			&r.Total,
			&r.Pass,
			&r.Fail,
			&r.Waived,
			&r.Error,
			&r.Verdict,
		); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(startedMS).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("nil db")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}
	return migrateSchema(db)
}

func migrateSchema(db *sql.DB) error {
	// Schema versions:
	// - v1: runs table
	const targetVersion = 1

	var v int
	if err := db.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("pragma user_version: %w", err)
	}
	if v >= targetVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at_unix_ms INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL,
  guides INTEGER NOT NULL,
  branch TEXT NOT NULL DEFAULT '',
  total INTEGER NOT NULL,
  passed INTEGER NOT NULL,
  failed INTEGER NOT NULL,
  waived INTEGER NOT NULL,
  errors INTEGER NOT NULL,
  verdict TEXT NOT NULL
);
`); err != nil {
		return fmt.Errorf("create runs: %w", err)
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_unix_ms);`); err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version=%d;`, targetVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}
