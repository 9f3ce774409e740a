// ABOUTME: Entity repository: analyses and hypotheses with validation,
// ABOUTME: identity, lifecycle checks, and read-modify-write persistence.

package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/casefile-io/casefile/internal/artifact"
)

// Repository is the single write path for insights entities. Every
// mutation reads the whole document, validates, applies, and writes it
// back atomically; last write on the same entity wins.
type Repository struct {
	store     artifact.Store
	registry  Registry
	hierarchy *Hierarchy
	logger    *slog.Logger
}

// NewRepository creates a repository over the given artifact store and
// run registry.
func NewRepository(store artifact.Store, registry Registry) *Repository {
	return &Repository{
		store:     store,
		registry:  registry,
		hierarchy: NewHierarchy(registry),
		logger:    slog.Default().With("component", "insights"),
	}
}

// Hierarchy exposes the run hierarchy manager backing this repository.
func (r *Repository) Hierarchy() *Hierarchy { return r.hierarchy }

// CreateAnalysis opens a new investigation container in the experiment:
// a nested analysis run plus its root document, status ACTIVE.
func (r *Repository) CreateAnalysis(ctx context.Context, experimentID, name, description string) (*Analysis, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	run, err := r.hierarchy.CreateAnalysisRun(ctx, experimentID, name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	analysis := &Analysis{
		RunID:       run.ID,
		Name:        name,
		Description: description,
		Status:      AnalysisActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.saveDoc(ctx, run.ID, analysisDoc, analysis); err != nil {
		return nil, err
	}
	r.logger.Info("created analysis", "experiment_id", experimentID, "run_id", run.ID, "name", name)
	return analysis, nil
}

// GetAnalysis returns the root document of an analysis run.
func (r *Repository) GetAnalysis(ctx context.Context, runID string) (*Analysis, error) {
	if _, err := r.hierarchy.RequireAnalysisRun(ctx, runID); err != nil {
		return nil, err
	}
	var analysis Analysis
	if err := r.loadDoc(ctx, runID, analysisDoc, &analysis); err != nil {
		return nil, err
	}
	analysis.RunID = runID
	return &analysis, nil
}

// AnalysisPatch carries the fields update may change. Nil pointers leave
// the current value alone.
type AnalysisPatch struct {
	Name        *string
	Description *string
	Status      *string
	Metadata    map[string]any
}

// UpdateAnalysis applies a patch to the analysis document. ARCHIVED is a
// terminal state: once there, status changes are rejected.
func (r *Repository) UpdateAnalysis(ctx context.Context, runID string, patch AnalysisPatch) (*Analysis, error) {
	analysis, err := r.GetAnalysis(ctx, runID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		next, err := ParseAnalysisStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		if analysis.Status == AnalysisArchived && next != AnalysisArchived {
			return nil, &InvalidTransitionError{
				Entity: "analysis",
				ID:     runID,
				From:   string(analysis.Status),
				To:     string(next),
				Reason: "archived analyses are immutable",
			}
		}
		analysis.Status = next
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
		}
		analysis.Name = *patch.Name
	}
	if patch.Description != nil {
		analysis.Description = *patch.Description
	}
	analysis.Metadata = mergeMetadata(analysis.Metadata, patch.Metadata)
	analysis.UpdatedAt = time.Now().UTC()

	if err := r.saveDoc(ctx, runID, analysisDoc, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// ListAnalyses returns the experiment's analyses in creation order.
// Analysis runs whose root document is missing are skipped; a document
// that fails to parse aborts the listing.
func (r *Repository) ListAnalyses(ctx context.Context, experimentID string) ([]*Analysis, error) {
	analysisRuns, err := r.hierarchy.AnalysisRuns(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("listing analysis runs: %w", err)
	}

	out := make([]*Analysis, 0, len(analysisRuns))
	for _, run := range analysisRuns {
		var analysis Analysis
		if err := r.loadDoc(ctx, run.ID, analysisDoc, &analysis); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		analysis.RunID = run.ID
		out = append(out, &analysis)
	}
	return out, nil
}

// CreateHypothesis records a new hypothesis in an analysis run, status
// TESTING. The rationale explains why the hypothesis is worth testing;
// it may be empty. Evidence is optional at creation; any evidence traces
// are linked to the run.
func (r *Repository) CreateHypothesis(ctx context.Context, runID, statement, testingPlan, rationale string, evidence []Evidence) (*Hypothesis, error) {
	if statement == "" {
		return nil, &ValidationError{Field: "statement", Reason: "must not be empty"}
	}
	if err := validateEvidence(evidence); err != nil {
		return nil, err
	}
	if _, err := r.hierarchy.RequireAnalysisRun(ctx, runID); err != nil {
		return nil, err
	}

	id, err := r.newEntityID(ctx, runID, hypothesisDoc)
	if err != nil {
		return nil, err
	}
	if err := r.linkEvidenceTraces(ctx, runID, evidenceTraceIDs(evidence)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	hypothesis := &Hypothesis{
		ID:          id,
		Statement:   statement,
		TestingPlan: testingPlan,
		Rationale:   rationale,
		Status:      HypothesisTesting,
		Evidence:    evidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.saveDoc(ctx, runID, hypothesisDoc(id), hypothesis); err != nil {
		return nil, err
	}
	r.logger.Info("created hypothesis", "run_id", runID, "hypothesis_id", id)
	return hypothesis, nil
}

// GetHypothesis returns one hypothesis document from an analysis run.
func (r *Repository) GetHypothesis(ctx context.Context, runID, hypothesisID string) (*Hypothesis, error) {
	var hypothesis Hypothesis
	if err := r.loadDoc(ctx, runID, hypothesisDoc(hypothesisID), &hypothesis); err != nil {
		return nil, err
	}
	return &hypothesis, nil
}

// HypothesisPatch carries the fields update may change. Evidence entries
// are appended, never replaced or removed.
type HypothesisPatch struct {
	Statement   *string
	TestingPlan *string
	Rationale   *string
	Status      *string
	Evidence    []Evidence
	Metrics     map[string]any
	Metadata    map[string]any
}

// UpdateHypothesis applies a patch. Moving to VALIDATED or REJECTED
// requires the hypothesis to hold at least one evidence entry, counting
// entries appended in the same call. A rejected patch leaves both the
// document and the run's trace-link set untouched.
func (r *Repository) UpdateHypothesis(ctx context.Context, runID, hypothesisID string, patch HypothesisPatch) (*Hypothesis, error) {
	hypothesis, err := r.GetHypothesis(ctx, runID, hypothesisID)
	if err != nil {
		return nil, err
	}
	if err := validateEvidence(patch.Evidence); err != nil {
		return nil, err
	}

	if patch.Status != nil {
		next, err := ParseHypothesisStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		if next.Terminal() && len(hypothesis.Evidence)+len(patch.Evidence) == 0 {
			return nil, &InvalidTransitionError{
				Entity: "hypothesis",
				ID:     hypothesisID,
				From:   string(hypothesis.Status),
				To:     string(next),
				Reason: "a conclusion requires at least one evidence entry",
			}
		}
		hypothesis.Status = next
	}
	if patch.Statement != nil {
		if *patch.Statement == "" {
			return nil, &ValidationError{Field: "statement", Reason: "must not be empty"}
		}
		hypothesis.Statement = *patch.Statement
	}
	if patch.TestingPlan != nil {
		hypothesis.TestingPlan = *patch.TestingPlan
	}
	if patch.Rationale != nil {
		hypothesis.Rationale = *patch.Rationale
	}

	// Everything validated; only now touch the link set.
	if err := r.linkEvidenceTraces(ctx, runID, evidenceTraceIDs(patch.Evidence)); err != nil {
		return nil, err
	}
	hypothesis.Evidence = append(hypothesis.Evidence, patch.Evidence...)
	hypothesis.Metrics = mergeMetadata(hypothesis.Metrics, patch.Metrics)
	hypothesis.Metadata = mergeMetadata(hypothesis.Metadata, patch.Metadata)
	hypothesis.UpdatedAt = time.Now().UTC()

	if err := r.saveDoc(ctx, runID, hypothesisDoc(hypothesisID), hypothesis); err != nil {
		return nil, err
	}
	return hypothesis, nil
}

// ListHypotheses returns an analysis run's hypotheses in creation order.
func (r *Repository) ListHypotheses(ctx context.Context, runID string) ([]*Hypothesis, error) {
	if _, err := r.hierarchy.RequireAnalysisRun(ctx, runID); err != nil {
		return nil, err
	}
	names, err := r.store.List(ctx, runID, hypothesisPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing hypothesis documents in run %s: %w", runID, err)
	}

	out := make([]*Hypothesis, 0, len(names))
	for _, name := range names {
		var hypothesis Hypothesis
		if err := r.loadDoc(ctx, runID, name, &hypothesis); err != nil {
			return nil, err
		}
		out = append(out, &hypothesis)
	}
	sortByCreation(out, func(h *Hypothesis) (time.Time, string) { return h.CreatedAt, h.ID })
	return out, nil
}

// linkEvidenceTraces links evidence traces to the owning run. Linking is
// an idempotent union, so evidence citing an already-linked trace is fine.
func (r *Repository) linkEvidenceTraces(ctx context.Context, runID string, traceIDs []string) error {
	if len(traceIDs) == 0 {
		return nil
	}
	if err := r.registry.LinkTraces(ctx, runID, traceIDs); err != nil {
		return fmt.Errorf("linking evidence traces to run %s: %w", runID, err)
	}
	return nil
}

func validateEvidence(evidence []Evidence) error {
	for i, ev := range evidence {
		if ev.TraceID == "" {
			return &ValidationError{Field: fmt.Sprintf("evidence[%d].trace_id", i), Reason: "must not be empty"}
		}
		if ev.Rationale == "" {
			return &ValidationError{Field: fmt.Sprintf("evidence[%d].rationale", i), Reason: "must not be empty"}
		}
	}
	return nil
}

func evidenceTraceIDs(evidence []Evidence) []string {
	ids := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		ids = append(ids, ev.TraceID)
	}
	return ids
}

func mergeMetadata(current, patch map[string]any) map[string]any {
	if len(patch) == 0 {
		return current
	}
	if current == nil {
		current = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		current[k] = v
	}
	return current
}

func sortByCreation[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}
