package runs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRegistry creates a temporary SQLite registry for testing.
func setupTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	reg, err := NewRegistry(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		reg.Close()
	})
	return reg
}

func TestRegistry_CreateAndGetRun(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	run, err := reg.CreateRun(ctx, "exp-1", "latency spike probe", "", map[string]string{
		"casefile.type": "analysis",
	})
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	got, err := reg.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got.ExperimentID)
	assert.Equal(t, "latency spike probe", got.Name)
	assert.Equal(t, "analysis", got.Tags["casefile.type"])
	assert.Empty(t, got.ParentRunID)
}

func TestRegistry_GetRun_NotFound(t *testing.T) {
	reg := setupTestRegistry(t)

	_, err := reg.GetRun(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_CreateRun_RequiresExperiment(t *testing.T) {
	reg := setupTestRegistry(t)

	_, err := reg.CreateRun(context.Background(), "", "name", "", nil)
	assert.Error(t, err)
}

func TestRegistry_SetTag(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	run, err := reg.CreateRun(ctx, "exp-1", "r", "", nil)
	require.NoError(t, err)

	require.NoError(t, reg.SetTag(ctx, run.ID, "casefile.name", "first"))
	require.NoError(t, reg.SetTag(ctx, run.ID, "casefile.name", "second"))

	got, err := reg.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Tags["casefile.name"])
}

func TestRegistry_SetTag_UnknownRun(t *testing.T) {
	reg := setupTestRegistry(t)

	err := reg.SetTag(context.Background(), "nope", "k", "v")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_SearchByTag_OldestFirst(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	first, err := reg.CreateRun(ctx, "exp-1", "a", "", map[string]string{"casefile.type": "umbrella"})
	require.NoError(t, err)
	second, err := reg.CreateRun(ctx, "exp-1", "b", "", map[string]string{"casefile.type": "umbrella"})
	require.NoError(t, err)
	// Different experiment must not match
	_, err = reg.CreateRun(ctx, "exp-2", "c", "", map[string]string{"casefile.type": "umbrella"})
	require.NoError(t, err)

	found, err := reg.SearchByTag(ctx, "exp-1", "casefile.type", "umbrella")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID, found[0].ID)
	assert.Equal(t, second.ID, found[1].ID)
}

func TestRegistry_ListChildren(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	parent, err := reg.CreateRun(ctx, "exp-1", "umbrella", "", nil)
	require.NoError(t, err)

	childA, err := reg.CreateRun(ctx, "exp-1", "first", parent.ID, nil)
	require.NoError(t, err)
	childB, err := reg.CreateRun(ctx, "exp-1", "second", parent.ID, nil)
	require.NoError(t, err)

	children, err := reg.ListChildren(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, childA.ID, children[0].ID)
	assert.Equal(t, childB.ID, children[1].ID)
	assert.Equal(t, parent.ID, children[0].ParentRunID)
}
