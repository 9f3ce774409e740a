package insights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCensus_RoundTrip(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	analysis, err := repo.CreateAnalysis(ctx, "exp-1", "timeout probe", "")
	require.NoError(t, err)

	census := map[string]any{
		"total_traces": 1200,
		"error_rate":   0.031,
		"buckets":      map[string]any{"ok": 1163, "error": 37},
	}
	require.NoError(t, repo.PutCensus(ctx, analysis.RunID, census))

	got, err := repo.GetCensus(ctx, analysis.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1200, got["total_traces"])
	assert.Equal(t, 0.031, got["error_rate"])
}

func TestCensus_MissingIsNotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	analysis, err := repo.CreateAnalysis(ctx, "exp-1", "timeout probe", "")
	require.NoError(t, err)

	_, err = repo.GetCensus(ctx, analysis.RunID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.PutCensus(ctx, analysis.RunID, nil)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
