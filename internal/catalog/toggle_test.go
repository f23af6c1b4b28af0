package catalog

import (
	"context"
	"testing"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/mmcdole/podcasts/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFavourite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)
	source := newFakeSource(page(1, true, podcast("1", "One"), podcast("42", "Answer")))
	c := newTestCache(t, source, st)
	require.NoError(t, c.LoadNextPage(ctx))

	fav, err := c.ToggleFavourite(ctx, "42")
	require.NoError(t, err)
	assert.True(t, fav)
	entry, _ := c.Entry("42")
	assert.True(t, entry.IsFavourite)
	rec, err := st.GetByID(ctx, "42")
	require.NoError(t, err)
	assert.True(t, rec.IsFavourite)

	fav, err = c.ToggleFavourite(ctx, "42")
	require.NoError(t, err)
	assert.False(t, fav)
	entry, _ = c.Entry("42")
	assert.False(t, entry.IsFavourite)
	rec, err = st.GetByID(ctx, "42")
	require.NoError(t, err)
	assert.False(t, rec.IsFavourite)

	assert.Equal(t, 1, source.callCount(), "toggle never fetches")
}

func TestToggleFavourite_RevertsOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{PodcastStore: newMemoryStore(t)}
	c := newTestCache(t, newFakeSource(page(1, true, podcast("42", "Answer"))), st)
	require.NoError(t, c.LoadNextPage(ctx))

	rec := &recorder{}
	cancel := c.Subscribe(rec.record)
	defer cancel()

	st.fail(nil, nil, errWriteFailed)
	fav, err := c.ToggleFavourite(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, errWriteFailed)
	assert.False(t, fav, "returns the value that stayed in effect")

	snaps := rec.all()
	require.GreaterOrEqual(t, len(snaps), 3)
	optimistic, reverted := snaps[len(snaps)-2], snaps[len(snaps)-1]
	assert.True(t, optimistic.Entries[0].IsFavourite, "patched before the write")
	assert.NoError(t, optimistic.Err)
	assert.False(t, reverted.Entries[0].IsFavourite, "reverted after the write failed")
	assert.ErrorIs(t, reverted.Err, domain.ErrStore)
	assert.Equal(t, domain.StateLoaded, reverted.State, "toggle errors are non-fatal")

	stored, err := st.GetByID(ctx, "42")
	require.NoError(t, err)
	assert.False(t, stored.IsFavourite)
}

func TestToggleFavourite_OutsideList(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)
	require.NoError(t, st.UpsertMany(ctx, []domain.PodcastRecord{storetest.Record("7", "Seven", false)}))
	source := newFakeSource()
	c := newTestCache(t, source, st)

	fav, err := c.ToggleFavourite(ctx, "7")
	require.NoError(t, err)
	assert.True(t, fav)

	rec, err := st.GetByID(ctx, "7")
	require.NoError(t, err)
	assert.True(t, rec.IsFavourite)
	assert.Empty(t, c.Snapshot().Entries)
	assert.Zero(t, source.callCount())
}

func TestToggleFavourite_UnknownID(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, newFakeSource(), newMemoryStore(t))

	_, err := c.ToggleFavourite(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, c.Snapshot().Err, domain.ErrNotFound)
}
