package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodumbeats/etebase-go/internal/logger"
)

func newTestCache(t *testing.T) *LocalCache {
	t.Helper()
	c, err := NewLocalCache(":memory:", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLocalCache_CollectionRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveCollection(ctx, "col1", []byte("blob-1")))

	got, err := c.LoadCollection(ctx, "col1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob-1"), got)

	// Upsert replaces.
	require.NoError(t, c.SaveCollection(ctx, "col1", []byte("blob-2")))
	got, err = c.LoadCollection(ctx, "col1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob-2"), got)
}

func TestLocalCache_MissingCollection(t *testing.T) {
	c := newTestCache(t)

	_, err := c.LoadCollection(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestLocalCache_ItemsScopedByCollection(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveItem(ctx, "colA", "item1", []byte("a1")))
	require.NoError(t, c.SaveItem(ctx, "colA", "item2", []byte("a2")))
	require.NoError(t, c.SaveItem(ctx, "colB", "item1", []byte("b1")))

	uids, err := c.ListItemUIDs(ctx, "colA")
	require.NoError(t, err)
	assert.Equal(t, []string{"item1", "item2"}, uids)

	got, err := c.LoadItem(ctx, "colB", "item1")
	require.NoError(t, err)
	assert.Equal(t, []byte("b1"), got)
}

func TestLocalCache_DeleteCollectionCascades(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveCollection(ctx, "colA", []byte("blob")))
	require.NoError(t, c.SaveItem(ctx, "colA", "item1", []byte("a1")))

	require.NoError(t, c.DeleteCollection(ctx, "colA"))

	_, err := c.LoadCollection(ctx, "colA")
	assert.ErrorIs(t, err, ErrNotCached)
	_, err = c.LoadItem(ctx, "colA", "item1")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestLocalCache_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	c, err := NewLocalCache(path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, c.SaveCollection(ctx, "col1", []byte("persisted")))
	require.NoError(t, c.Close())

	c2, err := NewLocalCache(path, logger.Nop())
	require.NoError(t, err)
	defer c2.Close()

	got, err := c2.LoadCollection(ctx, "col1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}
