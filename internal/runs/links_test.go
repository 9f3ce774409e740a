package runs

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkTraces_IdempotentUnion(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	run, err := reg.CreateRun(ctx, "exp-1", "r", "", nil)
	require.NoError(t, err)

	require.NoError(t, reg.LinkTraces(ctx, run.ID, []string{"tr-1", "tr-2"}))
	require.NoError(t, reg.LinkTraces(ctx, run.ID, []string{"tr-2", "tr-3"}))

	linked, err := reg.LinkedTraces(ctx, run.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tr-1", "tr-2", "tr-3"}, linked)
}

func TestLinkTraces_EmptySetIsNoop(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	run, err := reg.CreateRun(ctx, "exp-1", "r", "", nil)
	require.NoError(t, err)

	require.NoError(t, reg.LinkTraces(ctx, run.ID, nil))

	linked, err := reg.LinkedTraces(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestLinkTraces_UnknownRun(t *testing.T) {
	reg := setupTestRegistry(t)

	err := reg.LinkTraces(context.Background(), "nope", []string{"tr-1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsLinked(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	run, err := reg.CreateRun(ctx, "exp-1", "r", "", nil)
	require.NoError(t, err)
	require.NoError(t, reg.LinkTraces(ctx, run.ID, []string{"tr-1"}))

	linked, err := reg.IsLinked(ctx, run.ID, "tr-1")
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = reg.IsLinked(ctx, run.ID, "tr-9")
	require.NoError(t, err)
	assert.False(t, linked)
}

// Many concurrent linkers of overlapping sets must converge on the union
// with no duplicates and no loss.
func TestLinkTraces_ConcurrentLinkers(t *testing.T) {
	reg := setupTestRegistry(t)
	ctx := context.Background()

	run, err := reg.CreateRun(ctx, "exp-1", "r", "", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.LinkTraces(ctx, run.ID, []string{"tr-1", "tr-2", "tr-3"})
		}()
	}
	wg.Wait()

	linked, err := reg.LinkedTraces(ctx, run.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tr-1", "tr-2", "tr-3"}, linked)
}
