// ABOUTME: SQLite-backed registry of runs (containers) with tags and nesting
// ABOUTME: Provides the experiment/run addressing substrate the insights layer builds on

package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one container in the hierarchy: either an experiment-level umbrella
// run or an analysis run nested under it.
type Run struct {
	ID           string
	ExperimentID string
	Name         string
	ParentRunID  string // empty for top-level runs
	CreatedAt    time.Time
	Tags         map[string]string
}

// Registry stores runs, tags, and trace links in SQLite.
type Registry struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRegistry opens (or creates) the registry database at the given path.
// Parent directories are created if needed.
func NewRegistry(path string) (*Registry, error) {
	logger := slog.Default().With("component", "runs")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating registry directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}
	// Serialize writers at the pool level; SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	// WAL mode for concurrent readers alongside short-lived CLI writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	r := &Registry{db: db, logger: logger}
	if err := r.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("run registry initialized", "path", path)
	return r, nil
}

func (r *Registry) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id        TEXT PRIMARY KEY,
			experiment_id TEXT NOT NULL,
			name          TEXT NOT NULL,
			parent_run_id TEXT,
			created_at    DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_experiment
			ON runs(experiment_id, created_at);

		CREATE INDEX IF NOT EXISTS idx_runs_parent
			ON runs(parent_run_id);

		CREATE TABLE IF NOT EXISTS run_tags (
			run_id TEXT NOT NULL,
			key    TEXT NOT NULL,
			value  TEXT NOT NULL,
			PRIMARY KEY (run_id, key),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);

		CREATE INDEX IF NOT EXISTS idx_run_tags_kv
			ON run_tags(key, value);

		CREATE TABLE IF NOT EXISTS trace_links (
			run_id     TEXT NOT NULL,
			trace_id   TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (run_id, trace_id),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
	`
	_, err := r.db.Exec(schema)
	return err
}

// CreateRun creates a new run with a registry-assigned id and the given
// initial tags, all in one transaction.
func (r *Registry) CreateRun(ctx context.Context, experimentID, name, parentRunID string, tags map[string]string) (*Run, error) {
	if experimentID == "" {
		return nil, fmt.Errorf("experiment id is required")
	}

	run := &Run{
		ID:           uuid.New().String(),
		ExperimentID: experimentID,
		Name:         name,
		ParentRunID:  parentRunID,
		CreatedAt:    time.Now().UTC(),
		Tags:         make(map[string]string, len(tags)),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	if parentRunID != "" {
		parent = sql.NullString{String: parentRunID, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, experiment_id, name, parent_run_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ExperimentID, run.Name, parent, run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	for key, value := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_tags (run_id, key, value) VALUES (?, ?, ?)`,
			run.ID, key, value); err != nil {
			return nil, fmt.Errorf("inserting tag %s: %w", key, err)
		}
		run.Tags[key] = value
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing run: %w", err)
	}

	r.logger.Debug("run created",
		"run_id", run.ID,
		"experiment_id", experimentID,
		"parent_run_id", parentRunID)
	return run, nil
}

// GetRun returns a run with its tags, or ErrNotFound.
func (r *Registry) GetRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{Tags: make(map[string]string)}
	var parent sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT run_id, experiment_id, name, parent_run_id, created_at FROM runs WHERE run_id = ?`,
		runID).Scan(&run.ID, &run.ExperimentID, &run.Name, &parent, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	run.ParentRunID = parent.String

	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM run_tags WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		run.Tags[key] = value
	}
	return run, rows.Err()
}

// SetTag sets or replaces a tag on a run.
func (r *Registry) SetTag(ctx context.Context, runID, key, value string) error {
	if err := r.checkRunExists(ctx, runID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO run_tags (run_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (run_id, key) DO UPDATE SET value = excluded.value`,
		runID, key, value)
	if err != nil {
		return fmt.Errorf("setting tag: %w", err)
	}
	return nil
}

func (r *Registry) checkRunExists(ctx context.Context, runID string) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking run: %w", err)
	}
	return nil
}

// SearchByTag returns all runs in an experiment that carry the given tag
// key/value, in creation order. Insertion order (rowid) is the creation
// order, stable regardless of timestamp resolution. An empty experiment
// id searches every experiment.
func (r *Registry) SearchByTag(ctx context.Context, experimentID, key, value string) ([]*Run, error) {
	query := `SELECT r.run_id FROM runs r
		 JOIN run_tags t ON t.run_id = r.run_id
		 WHERE t.key = ? AND t.value = ?
		 ORDER BY r.rowid ASC`
	args := []any{key, value}
	if experimentID != "" {
		query = `SELECT r.run_id FROM runs r
		 JOIN run_tags t ON t.run_id = r.run_id
		 WHERE r.experiment_id = ? AND t.key = ? AND t.value = ?
		 ORDER BY r.rowid ASC`
		args = []any{experimentID, key, value}
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching runs by tag: %w", err)
	}
	defer rows.Close()
	return r.collectRuns(ctx, rows)
}

// ListChildren returns the runs nested under a parent, oldest first.
func (r *Registry) ListChildren(ctx context.Context, parentRunID string) ([]*Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id FROM runs WHERE parent_run_id = ?
		 ORDER BY rowid ASC`,
		parentRunID)
	if err != nil {
		return nil, fmt.Errorf("listing child runs: %w", err)
	}
	defer rows.Close()
	return r.collectRuns(ctx, rows)
}

func (r *Registry) collectRuns(ctx context.Context, rows *sql.Rows) ([]*Run, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := r.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}
