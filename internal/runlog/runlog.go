// Package runlog persists run history in SQLite: one row per run plus the
// content hash of every artifact it wrote. The history command reads it,
// and scheduled runs use it to tell changed artifacts from byte-identical
// re-emissions. Run metadata only; records are never persisted.
package runlog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitesync/internal/emit"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
)

// Run is the metadata persisted for one completed run.
type Run struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Outcome   string
	Records   int
	Published int
	Errors    int
	Warnings  int
}

// Entry is one recorded run as read back from the store.
type Entry struct {
	Run

	// Changed counts the artifacts whose hash differed from the
	// previous run, including artifacts the previous run did not have.
	Changed int
}

// Store is the SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates a run log at the given path. Use ":memory:" for
// an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "open sqlite database").
			WithContext("path", path).Build()
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "initialize schema").Build()
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		records INTEGER NOT NULL,
		published INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		changed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	CREATE TABLE IF NOT EXISTS artifacts (
		run_id TEXT NOT NULL,
		dest TEXT NOT NULL,
		hash TEXT NOT NULL,
		PRIMARY KEY (run_id, dest)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores one run and its artifact hashes. It returns the
// destinations whose content changed relative to the previous recorded
// run; on the first run every artifact counts as changed.
func (s *Store) Record(ctx context.Context, run Run, artifacts []emit.Artifact) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.latestHashes(ctx)
	if err != nil {
		return nil, err
	}

	var changed []string
	hashes := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		sum := sha256.Sum256(a.Bytes)
		hash := fmt.Sprintf("%x", sum)
		hashes[a.Dest] = hash
		if previous[a.Dest] != hash {
			changed = append(changed, a.Dest)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, started, finished, outcome, records, published, errors, warnings, changed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.RunID, run.Started.Unix(), run.Finished.Unix(), run.Outcome,
		run.Records, run.Published, run.Errors, run.Warnings, len(changed),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for _, a := range artifacts {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO artifacts (run_id, dest, hash) VALUES (?, ?, ?)",
			run.RunID, a.Dest, hashes[a.Dest],
		)
		if err != nil {
			return nil, fmt.Errorf("insert artifact hash: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}

	return changed, nil
}

// latestHashes returns dest -> hash for the most recently recorded run.
func (s *Store) latestHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT dest, hash FROM artifacts WHERE run_id = (SELECT run_id FROM runs ORDER BY id DESC LIMIT 1)",
	)
	if err != nil {
		return nil, fmt.Errorf("query previous hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var dest, hash string
		if err := rows.Scan(&dest, &hash); err != nil {
			return nil, fmt.Errorf("scan artifact hash: %w", err)
		}
		hashes[dest] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return hashes, nil
}

// History returns the most recent runs, newest first. A limit below one
// means no limit.
func (s *Store) History(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started, finished, outcome, records, published, errors, warnings, changed FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, finished int64
		err := rows.Scan(&e.RunID, &started, &finished, &e.Outcome,
			&e.Records, &e.Published, &e.Errors, &e.Warnings, &e.Changed)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Started = time.Unix(started, 0)
		e.Finished = time.Unix(finished, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// ArtifactHashes returns dest -> hash for one recorded run.
func (s *Store) ArtifactHashes(ctx context.Context, runID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT dest, hash FROM artifacts WHERE run_id = ? ORDER BY dest",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifact hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var dest, hash string
		if err := rows.Scan(&dest, &hash); err != nil {
			return nil, fmt.Errorf("scan artifact hash: %w", err)
		}
		hashes[dest] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return hashes, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
