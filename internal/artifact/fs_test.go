package artifact

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFSStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFSStore_PutGet(t *testing.T) {
	store := setupFSStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "run-1", "insights/analysis.yaml", []byte("name: test"))
	require.NoError(t, err)

	data, err := store.Get(ctx, "run-1", "insights/analysis.yaml")
	require.NoError(t, err)
	assert.Equal(t, "name: test", string(data))
}

func TestFSStore_PutOverwrite(t *testing.T) {
	store := setupFSStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "run-1", "doc.yaml", []byte("v1")))
	require.NoError(t, store.Put(ctx, "run-1", "doc.yaml", []byte("v2")))

	data, err := store.Get(ctx, "run-1", "doc.yaml")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestFSStore_GetNotFound(t *testing.T) {
	store := setupFSStore(t)

	_, err := store.Get(context.Background(), "run-1", "missing.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_ListPrefix(t *testing.T) {
	store := setupFSStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "run-1", "insights/hypothesis_b.yaml", []byte("b")))
	require.NoError(t, store.Put(ctx, "run-1", "insights/hypothesis_a.yaml", []byte("a")))
	require.NoError(t, store.Put(ctx, "run-1", "insights/analysis.yaml", []byte("x")))

	names, err := store.List(ctx, "run-1", "insights/hypothesis_")
	require.NoError(t, err)
	assert.Equal(t, []string{"insights/hypothesis_a.yaml", "insights/hypothesis_b.yaml"}, names)
}

func TestFSStore_ListEmptyRun(t *testing.T) {
	store := setupFSStore(t)

	names, err := store.List(context.Background(), "no-such-run", "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	store := setupFSStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "run-1", "../escape.yaml", []byte("x"))
	assert.Error(t, err)

	err = store.Put(ctx, "run-1", "/abs.yaml", []byte("x"))
	assert.Error(t, err)
}

// Concurrent writers to the same document must never produce a torn read:
// every Get returns one writer's complete payload.
func TestFSStore_ConcurrentWritesNotTorn(t *testing.T) {
	store := setupFSStore(t)
	ctx := context.Background()

	payload := func(i int) []byte {
		return []byte(fmt.Sprintf("writer-%d:%s", i, string(make([]byte, 4096))))
	}
	require.NoError(t, store.Put(ctx, "run-1", "doc.yaml", payload(0)))

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Put(ctx, "run-1", "doc.yaml", payload(i))
		}(i)
	}

	for range 50 {
		data, err := store.Get(ctx, "run-1", "doc.yaml")
		require.NoError(t, err)
		assert.Len(t, data, len(payload(0)))
	}
	wg.Wait()
}
