package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGetList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "run-1", "insights/analysis.yaml", []byte("a")))
	require.NoError(t, store.Put(ctx, "run-1", "insights/issue_1.yaml", []byte("i")))

	data, err := store.Get(ctx, "run-1", "insights/analysis.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	names, err := store.List(ctx, "run-1", "insights/issue_")
	require.NoError(t, err)
	assert.Equal(t, []string{"insights/issue_1.yaml"}, names)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "run-1", "missing.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_IsolatesRuns(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "run-1", "doc.yaml", []byte("one")))

	_, err := store.Get(ctx, "run-2", "doc.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	buf := []byte("original")
	require.NoError(t, store.Put(ctx, "run-1", "doc.yaml", buf))
	buf[0] = 'X'

	data, err := store.Get(ctx, "run-1", "doc.yaml")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}
