package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioworks/curio/internal/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "conversations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	entry := NewEntry(
		"summarize the quarterly report",
		"summarize the quarterly report",
		"Revenue grew 12% quarter over quarter.",
		[]string{"docsearch", "math"},
	)
	require.NoError(t, store.Append(ctx, entry))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, entry, loaded[0])
}

func TestStorePreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var ids []string
	for _, q := range []string{"first question", "second question", "third question"} {
		e := NewEntry(q, q, "answer", nil)
		ids = append(ids, e.ID)
		require.NoError(t, store.Append(ctx, e))
	}

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i, e := range loaded {
		require.Equal(t, ids[i], e.ID)
	}
}

func TestIndexPersistAndReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "conversations.db")

	store, err := OpenStore(ctx, path)
	require.NoError(t, err)

	idx := NewIndex(store, logging.Nop())
	require.NoError(t, idx.Load(ctx))

	entry := NewEntry("weather in Lisbon", "weather in Lisbon", "Mild and breezy.", []string{"clock"})
	require.NoError(t, idx.Add(ctx, entry))
	require.NoError(t, idx.Close())

	// Reopen from scratch: entry and keyword mapping survive intact.
	store2, err := OpenStore(ctx, path)
	require.NoError(t, err)
	idx2 := NewIndex(store2, logging.Nop())
	require.NoError(t, idx2.Load(ctx))
	defer idx2.Close()

	got := idx2.Search("lisbon weather", 5)
	require.Len(t, got, 1)
	require.Equal(t, entry, got[0])
}

func TestLoadAllEmptyStore(t *testing.T) {
	store := openTestStore(t)
	loaded, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}
