// ABOUTME: Census attachment: an externally produced statistical snapshot
// ABOUTME: stored verbatim against an analysis run, never computed here.

package insights

import "context"

// PutCensus attaches a census snapshot to an analysis run. The document
// is opaque: it is stored and returned as-is.
func (r *Repository) PutCensus(ctx context.Context, runID string, doc map[string]any) error {
	if len(doc) == 0 {
		return &ValidationError{Field: "census", Reason: "must not be empty"}
	}
	if _, err := r.hierarchy.RequireAnalysisRun(ctx, runID); err != nil {
		return err
	}
	return r.saveDoc(ctx, runID, censusDoc, doc)
}

// GetCensus returns the census snapshot attached to an analysis run, or
// ErrNotFound when none has been put.
func (r *Repository) GetCensus(ctx context.Context, runID string) (map[string]any, error) {
	if _, err := r.hierarchy.RequireAnalysisRun(ctx, runID); err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := r.loadDoc(ctx, runID, censusDoc, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
