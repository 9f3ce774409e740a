package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casefile-io/casefile/internal/artifact"
	"github.com/casefile-io/casefile/internal/insights"
	"github.com/casefile-io/casefile/internal/query"
	"github.com/casefile-io/casefile/internal/runs"
)

func setupTestServer(t *testing.T) (*httptest.Server, *insights.Repository) {
	t.Helper()
	reg, err := runs.NewRegistry(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		reg.Close()
	})

	repo := insights.NewRepository(artifact.NewMemoryStore(), reg)
	srv := New(query.NewService(repo, nil), repo, DefaultOptions())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func postJSON(t *testing.T, ts *httptest.Server, path string, req any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() {
		resp.Body.Close()
	})

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalysesListAndGet(t *testing.T) {
	ts, repo := setupTestServer(t)
	ctx := context.Background()

	analysis, err := repo.CreateAnalysis(ctx, "exp-1", "timeout probe", "p99 regression")
	require.NoError(t, err)

	resp, body := postJSON(t, ts, "/api/v1/insights/analyses/list", map[string]string{"experiment_id": "exp-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	analyses := body["analyses"].([]any)
	require.Len(t, analyses, 1)
	assert.Equal(t, "timeout probe", analyses[0].(map[string]any)["name"])

	resp, body = postJSON(t, ts, "/api/v1/insights/analyses/get", map[string]string{"run_id": analysis.RunID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ACTIVE", body["analysis"].(map[string]any)["status"])
}

func TestAnalysesGet_NotFound(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, body := postJSON(t, ts, "/api/v1/insights/analyses/get", map[string]string{"run_id": "no-such-run"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "not found")
}

func TestAnalysesList_RequiresExperimentID(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, _ := postJSON(t, ts, "/api/v1/insights/analyses/list", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHypothesesEndpoints(t *testing.T) {
	ts, repo := setupTestServer(t)
	ctx := context.Background()

	analysis, err := repo.CreateAnalysis(ctx, "exp-1", "timeout probe", "")
	require.NoError(t, err)
	hyp, err := repo.CreateHypothesis(ctx, analysis.RunID, "retries amplify load", "", "",
		[]insights.Evidence{
			{TraceID: "tr-1", Rationale: "storm visible", Supports: true},
			{TraceID: "tr-2", Rationale: "second storm", Supports: false},
		})
	require.NoError(t, err)

	resp, body := postJSON(t, ts, "/api/v1/insights/hypotheses/list",
		map[string]string{"insights_run_id": analysis.RunID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := body["hypotheses"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, float64(2), listed[0].(map[string]any)["evidence_count"])

	resp, body = postJSON(t, ts, "/api/v1/insights/hypotheses/get",
		map[string]string{"insights_run_id": analysis.RunID, "hypothesis_id": hyp.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "retries amplify load", body["hypothesis"].(map[string]any)["statement"])

	resp, body = postJSON(t, ts, "/api/v1/insights/hypotheses/preview",
		map[string]any{"insights_run_id": analysis.RunID, "max_traces": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total_count"])
	assert.Equal(t, float64(1), body["returned_count"])
}

func TestIssuesEndpoints(t *testing.T) {
	ts, repo := setupTestServer(t)
	ctx := context.Background()

	issue, err := repo.CreateIssue(ctx, "exp-1", insights.IssueParams{
		Title:    "checkout timeouts",
		Severity: "HIGH",
		Evidence: []insights.IssueEvidence{{TraceID: "tr-1", Rationale: "87s end-to-end"}},
	})
	require.NoError(t, err)

	resp, body := postJSON(t, ts, "/api/v1/insights/issues/list", map[string]string{"experiment_id": "exp-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	issues := body["issues"].([]any)
	require.Len(t, issues, 1)
	assert.Equal(t, "HIGH", issues[0].(map[string]any)["severity"])

	resp, body = postJSON(t, ts, "/api/v1/insights/issues/get", map[string]string{"issue_id": issue.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "checkout timeouts", body["issue"].(map[string]any)["title"])

	resp, body = postJSON(t, ts, "/api/v1/insights/issues/preview",
		map[string]any{"experiment_id": "exp-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total_count"])
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/insights/issues/list", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpointExposed(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpointFollowsOptions(t *testing.T) {
	reg, err := runs.NewRegistry(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		reg.Close()
	})
	repo := insights.NewRepository(artifact.NewMemoryStore(), reg)

	disabled := New(query.NewService(repo, nil), repo, Options{MetricsEnabled: false})
	ts := httptest.NewServer(disabled.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	custom := New(query.NewService(repo, nil), repo, Options{MetricsEnabled: true, MetricsPath: "/internal/metrics"})
	ts2 := httptest.NewServer(custom.Handler())
	t.Cleanup(ts2.Close)

	resp, err = http.Get(ts2.URL + "/internal/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
