package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/mmcdole/podcasts/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (domain.PodcastStore, func()) {
		s, err := NewInMemory()
		require.NoError(t, err)
		return s, func() { s.Close() }
	})
}

func TestStore_FileContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (domain.PodcastStore, func()) {
		s, err := New(filepath.Join(t.TempDir(), "podcasts.db"))
		require.NoError(t, err)
		return s, func() { s.Close() }
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "podcasts.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.UpsertMany(ctx, []domain.PodcastRecord{storetest.Record("42", "Answer", false)}))
	require.NoError(t, s.SetFavourite(ctx, "42", true))
	require.NoError(t, s.Close())

	reopened, err := New(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	favourites, err := reopened.ListFavourites(ctx)
	require.NoError(t, err)
	require.Len(t, favourites, 1)
	assert.Equal(t, "42", favourites[0].ID)
	assert.Equal(t, "Answer", favourites[0].Title)
}
