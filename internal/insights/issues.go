// ABOUTME: Issue operations on the experiment umbrella run.
// ABOUTME: Issues are experiment-scoped and require evidence from creation.

package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casefile-io/casefile/internal/runs"
)

// IssueParams are the inputs for creating an issue. At least one
// evidence entry is required: an issue without a demonstrating trace is
// a hypothesis, not an issue.
type IssueParams struct {
	Title        string
	Description  string
	Severity     string
	Evidence     []IssueEvidence
	SourceRunID  string
	HypothesisID string
	Metadata     map[string]any
}

// CreateIssue records a confirmed issue in the experiment's umbrella run,
// status OPEN. Evidence traces are linked to the umbrella run.
func (r *Repository) CreateIssue(ctx context.Context, experimentID string, params IssueParams) (*Issue, error) {
	if params.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	severity, err := ParseSeverity(params.Severity)
	if err != nil {
		return nil, err
	}
	if len(params.Evidence) == 0 {
		return nil, &ValidationError{Field: "evidence", Reason: "at least one evidence entry is required"}
	}
	if err := validateIssueEvidence(params.Evidence); err != nil {
		return nil, err
	}
	if params.HypothesisID != "" {
		if params.SourceRunID == "" {
			return nil, &ValidationError{Field: "source_run_id", Reason: "required when hypothesis_id is set"}
		}
		if _, err := r.GetHypothesis(ctx, params.SourceRunID, params.HypothesisID); err != nil {
			return nil, err
		}
	}

	umbrella, err := r.hierarchy.GetOrCreateUmbrella(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	id, err := r.newEntityID(ctx, umbrella.ID, issueDoc)
	if err != nil {
		return nil, err
	}
	if err := r.linkEvidenceTraces(ctx, umbrella.ID, issueTraceIDs(params.Evidence)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	issue := &Issue{
		ID:           id,
		Title:        params.Title,
		Description:  params.Description,
		Severity:     severity,
		Status:       IssueOpen,
		SourceRunID:  params.SourceRunID,
		HypothesisID: params.HypothesisID,
		Evidence:     params.Evidence,
		Metadata:     params.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.saveDoc(ctx, umbrella.ID, issueDoc(id), issue); err != nil {
		return nil, err
	}
	r.logger.Info("created issue", "experiment_id", experimentID, "issue_id", id, "severity", severity)
	return issue, nil
}

// GetIssue returns one issue. With an experiment id the lookup goes
// straight to that experiment's umbrella run; without one, every
// umbrella run is scanned.
func (r *Repository) GetIssue(ctx context.Context, experimentID, issueID string) (*Issue, error) {
	issue, _, err := r.findIssue(ctx, experimentID, issueID)
	return issue, err
}

func (r *Repository) findIssue(ctx context.Context, experimentID, issueID string) (*Issue, *runs.Run, error) {
	if issueID == "" {
		return nil, nil, &ValidationError{Field: "issue_id", Reason: "must not be empty"}
	}

	umbrellas, err := r.registry.SearchByTag(ctx, experimentID, TagType, TypeUmbrella)
	if err != nil {
		return nil, nil, fmt.Errorf("searching umbrella runs: %w", err)
	}
	for _, umbrella := range umbrellas {
		var issue Issue
		err := r.loadDoc(ctx, umbrella.ID, issueDoc(issueID), &issue)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return &issue, umbrella, nil
	}
	return nil, nil, fmt.Errorf("issue %s: %w", issueID, ErrNotFound)
}

// IssuePatch carries the fields update may change. Evidence and
// assessments are appended; setting a resolution moves the issue to
// RESOLVED in the same write.
type IssuePatch struct {
	Description *string
	Severity    *string
	Status      *string
	Resolution  *string
	Evidence    []IssueEvidence
	Assessments []string
	Metadata    map[string]any
}

// UpdateIssue applies a patch to an issue document. A rejected patch
// leaves both the document and the umbrella's trace-link set untouched.
func (r *Repository) UpdateIssue(ctx context.Context, experimentID, issueID string, patch IssuePatch) (*Issue, error) {
	issue, umbrella, err := r.findIssue(ctx, experimentID, issueID)
	if err != nil {
		return nil, err
	}
	if err := validateIssueEvidence(patch.Evidence); err != nil {
		return nil, err
	}

	if patch.Severity != nil {
		severity, err := ParseSeverity(*patch.Severity)
		if err != nil {
			return nil, err
		}
		issue.Severity = severity
	}
	if patch.Status != nil {
		status, err := ParseIssueStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		issue.Status = status
	}
	if patch.Resolution != nil && *patch.Resolution != "" {
		issue.Resolution = *patch.Resolution
		issue.Status = IssueResolved
	}
	if patch.Description != nil {
		issue.Description = *patch.Description
	}

	// Everything validated; only now touch the link set.
	if err := r.linkEvidenceTraces(ctx, umbrella.ID, issueTraceIDs(patch.Evidence)); err != nil {
		return nil, err
	}
	issue.Evidence = append(issue.Evidence, patch.Evidence...)
	issue.Assessments = appendUnique(issue.Assessments, patch.Assessments)
	issue.Metadata = mergeMetadata(issue.Metadata, patch.Metadata)
	issue.UpdatedAt = time.Now().UTC()

	if err := r.saveDoc(ctx, umbrella.ID, issueDoc(issueID), issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// ListIssues returns all of the experiment's issues, in document order.
// Callers that need the reporting order sort the summaries themselves.
func (r *Repository) ListIssues(ctx context.Context, experimentID string) ([]*Issue, error) {
	if experimentID == "" {
		return nil, &ValidationError{Field: "experiment_id", Reason: "must not be empty"}
	}
	umbrellas, err := r.registry.SearchByTag(ctx, experimentID, TagType, TypeUmbrella)
	if err != nil {
		return nil, fmt.Errorf("searching umbrella runs: %w", err)
	}
	if len(umbrellas) == 0 {
		return nil, nil
	}

	umbrella := umbrellas[0]
	names, err := r.store.List(ctx, umbrella.ID, issuePrefix)
	if err != nil {
		return nil, fmt.Errorf("listing issue documents in run %s: %w", umbrella.ID, err)
	}
	out := make([]*Issue, 0, len(names))
	for _, name := range names {
		var issue Issue
		if err := r.loadDoc(ctx, umbrella.ID, name, &issue); err != nil {
			return nil, err
		}
		out = append(out, &issue)
	}
	return out, nil
}

func validateIssueEvidence(evidence []IssueEvidence) error {
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

func issueTraceIDs(evidence []IssueEvidence) []string {
	ids := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		ids = append(ids, ev.TraceID)
	}
	return ids
}

func appendUnique(current, extra []string) []string {
	seen := make(map[string]struct{}, len(current))
	for _, s := range current {
		seen[s] = struct{}{}
	}
	for _, s := range extra {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		current = append(current, s)
	}
	return current
}
