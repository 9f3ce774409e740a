// ABOUTME: Idempotent trace-link set per run, backed by the registry database
// ABOUTME: INSERT OR IGNORE makes redundant links from short-lived processes safe

package runs

import (
	"context"
	"database/sql"
	"fmt"
)

// LinkTraces records the association between a run and the given trace ids.
// The operation is an idempotent union with the run's existing linked-trace
// set: re-linking an already-linked trace is a no-op, not an error.
func (r *Registry) LinkTraces(ctx context.Context, runID string, traceIDs []string) error {
	if len(traceIDs) == 0 {
		return nil
	}
	if err := r.checkRunExists(ctx, runID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, traceID := range traceIDs {
		if traceID == "" {
			return fmt.Errorf("empty trace id")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO trace_links (run_id, trace_id, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
			runID, traceID); err != nil {
			return fmt.Errorf("linking trace %s: %w", traceID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing trace links: %w", err)
	}

	r.logger.Debug("traces linked", "run_id", runID, "count", len(traceIDs))
	return nil
}

// IsLinked reports whether a trace id is in the run's linked set.
func (r *Registry) IsLinked(ctx context.Context, runID, traceID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM trace_links WHERE run_id = ? AND trace_id = ?`,
		runID, traceID).Scan(&one)
	if err == nil {
		return true, nil
	}
	if err == sql.ErrNoRows {
		return false, nil
	}
	return false, fmt.Errorf("checking trace link: %w", err)
}

// LinkedTraces returns all trace ids linked to a run, in link order.
func (r *Registry) LinkedTraces(ctx context.Context, runID string) ([]string, error) {
	if err := r.checkRunExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT trace_id FROM trace_links WHERE run_id = ? ORDER BY rowid ASC`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("listing trace links: %w", err)
	}
	defer rows.Close()

	traceIDs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning trace id: %w", err)
		}
		traceIDs = append(traceIDs, id)
	}
	return traceIDs, rows.Err()
}
