package store

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/mmcdole/podcasts/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (domain.PodcastStore, func()) {
		s, err := NewBoltStore(t.TempDir(), "https://listen-api.example.com")
		require.NoError(t, err)
		return s, func() { s.Close() }
	})
}

func TestBoltStore_MemoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (domain.PodcastStore, func()) {
		s, err := NewBoltStore("", "")
		require.NoError(t, err)
		return s, func() { s.Close() }
	})
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	const source = "https://listen-api.example.com"

	s, err := NewBoltStore(dir, source)
	require.NoError(t, err)
	require.NoError(t, s.UpsertMany(ctx, []domain.PodcastRecord{storetest.Record("42", "Answer", false)}))
	require.NoError(t, s.SetFavourite(ctx, "42", true))
	require.NoError(t, s.Close())

	reopened, err := NewBoltStore(dir, source)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.GetByID(ctx, "42")
	require.NoError(t, err)
	assert.True(t, rec.IsFavourite)
	assert.Equal(t, "Answer", rec.Title)
}

func TestBoltStore_SeparatesSources(t *testing.T) {
	dir := t.TempDir()

	a, err := NewBoltStore(dir, "https://a.example.com/")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewBoltStore(dir, "https://b.example.com")
	require.NoError(t, err)
	defer b.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = os.Stat(filepath.Join(dir, hashSourceURL("HTTPS://A.example.com"), "podcasts.db"))
	assert.NoError(t, err, "source URL hash should ignore case and trailing slash")
}

func TestNotifier_CoalescesSignals(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	var loads atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := n.Watch(ctx, func(context.Context) ([]domain.PodcastRecord, error) {
		loads.Add(1)
		return nil, nil
	})
	<-feed // initial

	for i := 0; i < 10; i++ {
		n.Notify()
	}
	<-feed
	assert.LessOrEqual(t, loads.Load(), int32(3), "slow subscriber should see coalesced reloads")
}

func TestNotifier_WatchAfterClose(t *testing.T) {
	n := NewNotifier()
	n.Close()
	n.Notify() // must not panic

	_, ok := <-n.Watch(context.Background(), func(context.Context) ([]domain.PodcastRecord, error) {
		return nil, nil
	})
	assert.False(t, ok)
}
