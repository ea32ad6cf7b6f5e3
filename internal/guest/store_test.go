package guest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backend/internal/portfolios"
)

func TestStoreSaveOverwritesAndLoads(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV())

	doc := portfolios.Generate(portfolios.GenerateOptions{ID: "doc-1", Title: "First"})
	store.Save(ctx, doc)
	doc.Title = "Second"
	store.Save(ctx, doc)

	rec, err := store.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Second", rec["title"])

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoreLoadAllSkipsBrokenEntries(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewStore(kv)

	store.Save(ctx, portfolios.Generate(portfolios.GenerateOptions{ID: "good", Title: "Good"}))
	require.NoError(t, kv.Set(ctx, Key("garbage"), "{not json"))
	require.NoError(t, kv.Set(ctx, Key("no-hero"), `{"title":"x"}`))
	require.NoError(t, kv.Set(ctx, Key("array"), `[1,2]`))
	require.NoError(t, kv.Set(ctx, "unrelated", `{"title":"x","hero":{}}`))

	snaps, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "good", snaps[0].ID)
	assert.Equal(t, "Good", snaps[0].Data["title"])
}

func TestStoreSaveNeverFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewStore(NewMemoryKV())

	assert.NotPanics(t, func() {
		store.Save(ctx, portfolios.Generate(portfolios.GenerateOptions{ID: "doc-1"}))
		store.Save(context.Background(), portfolios.Portfolio{})
	})
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newSQLiteKV(t))
	store.Save(ctx, portfolios.Generate(portfolios.GenerateOptions{ID: "doc-1", Title: "T"}))

	require.NoError(t, store.Clear(ctx, "doc-1"))
	snaps, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
