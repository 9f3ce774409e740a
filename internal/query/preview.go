// ABOUTME: Evidence trace previews: flatten, deduplicate, truncate, resolve.
// ABOUTME: Unresolvable traces degrade to id and rationale; they still count.

package query

import (
	"context"
	"time"
)

// defaultMaxTraces caps a preview when the caller does not.
const defaultMaxTraces = 100

// TracePreview is one resolved evidence trace. When the trace store
// cannot resolve the id, only TraceID and EvidenceRationale are set.
type TracePreview struct {
	TraceID           string     `json:"trace_id"`
	RequestID         string     `json:"request_id,omitempty"`
	Status            string     `json:"status,omitempty"`
	ExecutionTimeMS   int64      `json:"execution_time_ms,omitempty"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	EvidenceRationale string     `json:"evidence_rationale"`
}

// Preview is the bounded trace sample for a run's hypotheses or an
// experiment's issues. TotalCount counts all distinct evidence traces;
// ReturnedCount counts the ones actually resolved and returned.
type Preview struct {
	Traces        []TracePreview `json:"traces"`
	TotalCount    int            `json:"total_count"`
	ReturnedCount int            `json:"returned_count"`
}

// traceRef pairs a trace id with the rationale of the first evidence
// entry that cited it.
type traceRef struct {
	traceID   string
	rationale string
}

// PreviewHypotheses samples the evidence traces of all hypotheses in an
// analysis run. Entities are walked in listing order, evidence in
// insertion order, and each trace keeps its first-seen rationale.
func (s *Service) PreviewHypotheses(ctx context.Context, runID string, maxTraces int) (*Preview, error) {
	hypotheses, err := s.repo.ListHypotheses(ctx, runID)
	if err != nil {
		return nil, err
	}

	var refs []traceRef
	for _, h := range hypotheses {
		for _, ev := range h.Evidence {
			refs = append(refs, traceRef{traceID: ev.TraceID, rationale: ev.Rationale})
		}
	}
	return s.buildPreview(ctx, refs, maxTraces), nil
}

// PreviewIssues samples the evidence traces of all issues in an
// experiment, walking issues in the same order ListIssues reports them.
func (s *Service) PreviewIssues(ctx context.Context, experimentID string, maxTraces int) (*Preview, error) {
	issues, err := s.repo.ListIssues(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	sortIssues(issues)

	var refs []traceRef
	for _, issue := range issues {
		for _, ev := range issue.Evidence {
			refs = append(refs, traceRef{traceID: ev.TraceID, rationale: ev.Rationale})
		}
	}
	return s.buildPreview(ctx, refs, maxTraces), nil
}

// buildPreview deduplicates refs in first-seen order, truncates to the
// cap, and resolves what it can.
func (s *Service) buildPreview(ctx context.Context, refs []traceRef, maxTraces int) *Preview {
	if maxTraces <= 0 {
		maxTraces = defaultMaxTraces
	}

	seen := make(map[string]struct{}, len(refs))
	distinct := make([]traceRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.traceID]; ok {
			continue
		}
		seen[ref.traceID] = struct{}{}
		distinct = append(distinct, ref)
	}

	preview := &Preview{TotalCount: len(distinct), Traces: []TracePreview{}}
	if len(distinct) > maxTraces {
		distinct = distinct[:maxTraces]
	}

	for _, ref := range distinct {
		preview.Traces = append(preview.Traces, s.resolve(ctx, ref))
	}
	preview.ReturnedCount = len(preview.Traces)
	return preview
}

func (s *Service) resolve(ctx context.Context, ref traceRef) TracePreview {
	degraded := TracePreview{TraceID: ref.traceID, EvidenceRationale: ref.rationale}
	if s.traces == nil {
		return degraded
	}

	summary, err := s.traces.GetTrace(ctx, ref.traceID)
	if err != nil {
		s.logger.Warn("trace resolution failed", "trace_id", ref.traceID, "error", err)
		return degraded
	}

	ts := summary.Timestamp
	return TracePreview{
		TraceID:           ref.traceID,
		RequestID:         summary.RequestID,
		Status:            summary.Status,
		ExecutionTimeMS:   summary.ExecutionTimeMS,
		Timestamp:         &ts,
		EvidenceRationale: ref.rationale,
	}
}
