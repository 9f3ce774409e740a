package query

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casefile-io/casefile/internal/artifact"
	"github.com/casefile-io/casefile/internal/insights"
	"github.com/casefile-io/casefile/internal/runs"
	"github.com/casefile-io/casefile/internal/tracestore"
)

// fakeTraceReader resolves every trace except the ids listed in missing.
type fakeTraceReader struct {
	missing map[string]bool
}

func (f *fakeTraceReader) GetTrace(_ context.Context, traceID string) (*tracestore.Summary, error) {
	if f.missing[traceID] {
		return nil, tracestore.ErrNotFound
	}
	return &tracestore.Summary{
		TraceID:         traceID,
		RequestID:       "req-" + traceID,
		Status:          "OK",
		ExecutionTimeMS: 250,
		Timestamp:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeTraceReader) SearchTraces(context.Context, tracestore.SearchRequest) ([]string, error) {
	return nil, nil
}

func setupTestService(t *testing.T) (*Service, *insights.Repository) {
	t.Helper()
	reg, err := runs.NewRegistry(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		reg.Close()
	})
	repo := insights.NewRepository(artifact.NewMemoryStore(), reg)
	return NewService(repo, &fakeTraceReader{}), repo
}

func createIssueWithTraces(t *testing.T, repo *insights.Repository, title string, traceCount int) *insights.Issue {
	t.Helper()
	evidence := make([]insights.IssueEvidence, 0, traceCount)
	for i := 0; i < traceCount; i++ {
		evidence = append(evidence, insights.IssueEvidence{
			TraceID:   fmt.Sprintf("%s-tr-%d", title, i),
			Rationale: "observed failure",
		})
	}
	issue, err := repo.CreateIssue(context.Background(), "exp-1", insights.IssueParams{
		Title:    title,
		Severity: "MEDIUM",
		Evidence: evidence,
	})
	require.NoError(t, err)
	return issue
}

func TestListIssues_OrderedByTraceCountDescending(t *testing.T) {
	svc, repo := setupTestService(t)

	createIssueWithTraces(t, repo, "issue-a", 3)
	createIssueWithTraces(t, repo, "issue-b", 1)
	createIssueWithTraces(t, repo, "issue-c", 5)

	listed, err := svc.ListIssues(context.Background(), "exp-1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "issue-c", listed[0].Title)
	assert.Equal(t, "issue-a", listed[1].Title)
	assert.Equal(t, "issue-b", listed[2].Title)
	assert.Equal(t, []int{5, 3, 1}, []int{listed[0].TraceCount, listed[1].TraceCount, listed[2].TraceCount})
}

func TestListAnalyses_CarriesHypothesisCounters(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	analysis, err := repo.CreateAnalysis(ctx, "exp-1", "timeout probe", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		hyp, err := repo.CreateHypothesis(ctx, analysis.RunID, fmt.Sprintf("statement %d", i), "", "", nil)
		require.NoError(t, err)
		if i == 0 {
			status := "VALIDATED"
			_, err = repo.UpdateHypothesis(ctx, analysis.RunID, hyp.ID, insights.HypothesisPatch{
				Status:   &status,
				Evidence: []insights.Evidence{{TraceID: "tr-1", Rationale: "r", Supports: true}},
			})
			require.NoError(t, err)
		}
	}

	listed, err := svc.ListAnalyses(ctx, "exp-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 3, listed[0].HypothesisCount)
	assert.Equal(t, 1, listed[0].ValidatedCount)
}

func TestListHypotheses_SummariesOmitEvidenceBodies(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	analysis, err := repo.CreateAnalysis(ctx, "exp-1", "timeout probe", "")
	require.NoError(t, err)
	_, err = repo.CreateHypothesis(ctx, analysis.RunID, "stmt", "", "", []insights.Evidence{
		{TraceID: "tr-1", Rationale: "a", Supports: true},
		{TraceID: "tr-1", Rationale: "b", Supports: false},
	})
	require.NoError(t, err)

	listed, err := svc.ListHypotheses(ctx, analysis.RunID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 2, listed[0].EvidenceCount)
	assert.Equal(t, 1, listed[0].TraceCount)
	assert.Equal(t, 1, listed[0].SupportsCount)
	assert.Equal(t, 1, listed[0].RefutesCount)
}
