// Package storetest holds the contract suite every domain.PodcastStore
// implementation must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store and a cleanup func.
type Factory func(t *testing.T) (domain.PodcastStore, func())

// Run runs the standard store test suite against a PodcastStore implementation.
func Run(t *testing.T, newStore Factory) {
	t.Run("UpsertMany", func(t *testing.T) {
		runUpsertTests(t, newStore)
	})
	t.Run("GetByID", func(t *testing.T) {
		runGetByIDTests(t, newStore)
	})
	t.Run("SetFavourite", func(t *testing.T) {
		runSetFavouriteTests(t, newStore)
	})
	t.Run("ListFavourites", func(t *testing.T) {
		runListFavouritesTests(t, newStore)
	})
	t.Run("ObserveAll", func(t *testing.T) {
		runObserveTests(t, newStore)
	})
	t.Run("Concurrency", func(t *testing.T) {
		runConcurrencyTests(t, newStore)
	})
	t.Run("Close", func(t *testing.T) {
		runCloseTests(t, newStore)
	})
}

// Record builds a record with predictable display fields.
func Record(id, title string, favourite bool) domain.PodcastRecord {
	return domain.PodcastRecord{
		ID:           id,
		Title:        title,
		Publisher:    "Publisher " + id,
		ThumbnailURL: "https://cdn.example.com/" + id + ".jpg",
		Description:  "About " + title,
		IsFavourite:  favourite,
		UpdatedAt:    time.Now().Unix(),
	}
}

func runUpsertTests(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("inserts new records", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		err := store.UpsertMany(ctx, []domain.PodcastRecord{
			Record("b", "Bravo", false),
			Record("a", "Alpha", true),
		})
		require.NoError(t, err)

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "a", all[0].ID)
		assert.True(t, all[0].IsFavourite)
		assert.Equal(t, "b", all[1].ID)
		assert.False(t, all[1].IsFavourite)
		assert.Equal(t, "Publisher b", all[1].Publisher)
	})

	t.Run("replaces display attributes and keeps favourite flag", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		require.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{Record("42", "Old Title", false)}))
		require.NoError(t, store.SetFavourite(ctx, "42", true))

		updated := Record("42", "New Title", false)
		updated.Publisher = "New Publisher"
		require.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{updated}))

		rec, err := store.GetByID(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "New Title", rec.Title)
		assert.Equal(t, "New Publisher", rec.Publisher)
		assert.True(t, rec.IsFavourite, "upsert must not revert a stored favourite")
	})

	t.Run("is idempotent", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		batch := []domain.PodcastRecord{Record("1", "One", false), Record("2", "Two", false)}
		require.NoError(t, store.UpsertMany(ctx, batch))
		require.NoError(t, store.UpsertMany(ctx, batch))

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		require.NoError(t, store.UpsertMany(ctx, nil))
		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func runGetByIDTests(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("returns stored record", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		require.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{Record("7", "Seven", true)}))

		rec, err := store.GetByID(ctx, "7")
		require.NoError(t, err)
		assert.Equal(t, "Seven", rec.Title)
		assert.Equal(t, "About Seven", rec.Description)
		assert.True(t, rec.IsFavourite)
	})

	t.Run("unknown id is ErrNotFound", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		_, err := store.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func runSetFavouriteTests(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("persists flag", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		require.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{Record("1", "One", false)}))
		require.NoError(t, store.SetFavourite(ctx, "1", true))

		rec, err := store.GetByID(ctx, "1")
		require.NoError(t, err)
		assert.True(t, rec.IsFavourite)
		assert.Equal(t, "One", rec.Title, "display attributes must be untouched")

		require.NoError(t, store.SetFavourite(ctx, "1", false))
		rec, err = store.GetByID(ctx, "1")
		require.NoError(t, err)
		assert.False(t, rec.IsFavourite)
	})

	t.Run("unknown id is ErrNotFound", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		err := store.SetFavourite(ctx, "missing", true)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all, "SetFavourite must not create rows")
	})
}

func runListFavouritesTests(t *testing.T, newStore Factory) {
	ctx := context.Background()

	store, cleanup := newStore(t)
	defer cleanup()

	require.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{
		Record("1", "zebra talk", true),
		Record("2", "Apple Hour", true),
		Record("3", "Middle", false),
	}))

	favourites, err := store.ListFavourites(ctx)
	require.NoError(t, err)
	require.Len(t, favourites, 2)
	assert.Equal(t, "2", favourites[0].ID)
	assert.Equal(t, "1", favourites[1].ID)
}

func runObserveTests(t *testing.T, newStore Factory) {
	t.Run("emits current contents on subscribe", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		require.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{Record("1", "One", false)}))

		feed := store.ObserveAll(ctx)
		first := receive(t, feed)
		require.Len(t, first, 1)
		assert.Equal(t, "1", first[0].ID)
	})

	t.Run("emits after writes", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		feed := store.ObserveAll(ctx)
		assert.Empty(t, receive(t, feed))

		require.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{Record("1", "One", false)}))
		require.NoError(t, store.SetFavourite(ctx, "1", true))

		// Signals may coalesce; wait until the latest contents show up
		waitFor(t, feed, func(records []domain.PodcastRecord) bool {
			return len(records) == 1 && records[0].IsFavourite
		})
	})

	t.Run("closes when context is cancelled", func(t *testing.T) {
		store, cleanup := newStore(t)
		defer cleanup()

		ctx, cancel := context.WithCancel(context.Background())
		feed := store.ObserveAll(ctx)
		receive(t, feed)
		cancel()

		assertClosed(t, feed)
	})
}

func runConcurrencyTests(t *testing.T, newStore Factory) {
	ctx := context.Background()

	store, cleanup := newStore(t)
	defer cleanup()

	const n = 20
	seed := make([]domain.PodcastRecord, n)
	for i := range seed {
		seed[i] = Record(fmt.Sprintf("%02d", i), fmt.Sprintf("Title %02d", i), false)
	}
	require.NoError(t, store.UpsertMany(ctx, seed))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.SetFavourite(ctx, fmt.Sprintf("%02d", i), true))
		}(i)
		go func(i int) {
			defer wg.Done()
			rec := Record(fmt.Sprintf("%02d", i), fmt.Sprintf("Renamed %02d", i), false)
			assert.NoError(t, store.UpsertMany(ctx, []domain.PodcastRecord{rec}))
		}(i)
	}
	wg.Wait()

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)
	for _, rec := range all {
		assert.True(t, rec.IsFavourite, "favourite lost for %s", rec.ID)
		assert.Equal(t, "Renamed "+rec.ID, rec.Title)
	}
}

func runCloseTests(t *testing.T, newStore Factory) {
	ctx := context.Background()

	store, cleanup := newStore(t)
	defer cleanup()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "Close must be idempotent")

	_, err := store.GetAll(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
	assert.ErrorIs(t, store.SetFavourite(ctx, "1", true), domain.ErrStoreClosed)
	assert.ErrorIs(t, store.UpsertMany(ctx, []domain.PodcastRecord{Record("1", "One", false)}), domain.ErrStoreClosed)

	assertClosed(t, store.ObserveAll(ctx))
}

func receive(t *testing.T, feed <-chan []domain.PodcastRecord) []domain.PodcastRecord {
	t.Helper()
	select {
	case records, ok := <-feed:
		require.True(t, ok, "feed closed unexpectedly")
		return records
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for store event")
		return nil
	}
}

func waitFor(t *testing.T, feed <-chan []domain.PodcastRecord, cond func([]domain.PodcastRecord) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case records, ok := <-feed:
			require.True(t, ok, "feed closed unexpectedly")
			if cond(records) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching store event")
		}
	}
}

func assertClosed(t *testing.T, feed <-chan []domain.PodcastRecord) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-feed:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("feed was not closed")
		}
	}
}
