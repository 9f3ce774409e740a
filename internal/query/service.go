// ABOUTME: Read-side service: deterministic listing orders and summaries.
// ABOUTME: Never mutates; safe to poll from UI clients every second or two.

package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/casefile-io/casefile/internal/insights"
	"github.com/casefile-io/casefile/internal/tracestore"
)

// Service answers the listing and preview queries over the repository.
type Service struct {
	repo   *insights.Repository
	traces tracestore.Reader
	logger *slog.Logger
}

// NewService creates the query service. The trace reader may be nil;
// previews then degrade to trace ids and rationales.
func NewService(repo *insights.Repository, traces tracestore.Reader) *Service {
	return &Service{
		repo:   repo,
		traces: traces,
		logger: slog.Default().With("component", "query"),
	}
}

// ListAnalyses returns the experiment's analyses in creation order, each
// with its hypothesis counters.
func (s *Service) ListAnalyses(ctx context.Context, experimentID string) ([]insights.AnalysisSummary, error) {
	analyses, err := s.repo.ListAnalyses(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	out := make([]insights.AnalysisSummary, 0, len(analyses))
	for _, analysis := range analyses {
		hypotheses, err := s.repo.ListHypotheses(ctx, analysis.RunID)
		if err != nil {
			return nil, fmt.Errorf("counting hypotheses for run %s: %w", analysis.RunID, err)
		}
		validated := 0
		for _, h := range hypotheses {
			if h.Status == insights.HypothesisValidated {
				validated++
			}
		}
		out = append(out, insights.AnalysisSummary{
			RunID:           analysis.RunID,
			Name:            analysis.Name,
			Description:     analysis.Description,
			Status:          analysis.Status,
			HypothesisCount: len(hypotheses),
			ValidatedCount:  validated,
			CreatedAt:       analysis.CreatedAt,
			UpdatedAt:       analysis.UpdatedAt,
		})
	}
	return out, nil
}

// ListHypotheses returns an analysis run's hypotheses in creation order,
// as summaries carrying the derived evidence counters.
func (s *Service) ListHypotheses(ctx context.Context, runID string) ([]insights.HypothesisSummary, error) {
	hypotheses, err := s.repo.ListHypotheses(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]insights.HypothesisSummary, 0, len(hypotheses))
	for _, h := range hypotheses {
		out = append(out, h.Summarize())
	}
	return out, nil
}

// ListIssues returns the experiment's issues ordered by evidence reach:
// trace count descending, then newest first. The most widespread issues
// surface at the top.
func (s *Service) ListIssues(ctx context.Context, experimentID string) ([]insights.IssueSummary, error) {
	issues, err := s.repo.ListIssues(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	sortIssues(issues)

	out := make([]insights.IssueSummary, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Summarize())
	}
	return out, nil
}

func sortIssues(issues []*insights.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		ci, cj := issues[i].TraceCount(), issues[j].TraceCount()
		if ci != cj {
			return ci > cj
		}
		if !issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].CreatedAt.After(issues[j].CreatedAt)
		}
		return issues[i].ID < issues[j].ID
	})
}
