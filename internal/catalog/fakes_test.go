package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/mmcdole/podcasts/internal/store"
	"github.com/stretchr/testify/require"
)

var errWriteFailed = errors.New("disk full")

func podcast(id, title string) domain.Podcast {
	return domain.Podcast{
		ID:           id,
		Title:        title,
		Publisher:    "Publisher " + id,
		ThumbnailURL: "https://cdn.example.com/" + id + ".jpg",
		Description:  "About " + title,
	}
}

func page(number int, hasNext bool, podcasts ...domain.Podcast) domain.Page {
	return domain.Page{Number: number, Podcasts: podcasts, HasNext: hasNext}
}

// fakeSource serves canned pages. Pages without an entry are empty.
type fakeSource struct {
	mu    sync.Mutex
	pages map[int]domain.Page
	errs  map[int][]error // Consumed one per call
	calls []int

	block   chan struct{} // When set, FetchPage waits for it to close
	started chan int      // When set, receives the page number on entry
}

func newFakeSource(pages ...domain.Page) *fakeSource {
	f := &fakeSource{pages: make(map[int]domain.Page), errs: make(map[int][]error)}
	for _, p := range pages {
		f.pages[p.Number] = p
	}
	return f
}

func (f *fakeSource) setPage(p domain.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[p.Number] = p
}

func (f *fakeSource) failOnce(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[page] = append(f.errs[page], err)
}

// pause makes later fetches report their page on started and wait until
// release is called.
func (f *fakeSource) pause() (started <-chan int, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = make(chan struct{})
	f.started = make(chan int, 1)
	block := f.block
	var once sync.Once
	return f.started, func() { once.Do(func() { close(block) }) }
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) FetchPage(ctx context.Context, n int) (domain.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, n)
	var err error
	if queued := f.errs[n]; len(queued) > 0 {
		err = queued[0]
		f.errs[n] = queued[1:]
	}
	p, ok := f.pages[n]
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- n
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.Page{}, fmt.Errorf("%w: %v", domain.ErrNetwork, ctx.Err())
		}
	}
	if err != nil {
		return domain.Page{}, err
	}
	if !ok {
		return domain.Page{Number: n}, nil
	}
	return p, nil
}

// flakyStore wraps a real store and fails selected calls on demand.
type flakyStore struct {
	domain.PodcastStore

	mu              sync.Mutex
	getAllErr       error
	upsertErr       error
	setFavouriteErr error
}

func (s *flakyStore) fail(getAll, upsert, setFavourite error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getAllErr, s.upsertErr, s.setFavouriteErr = getAll, upsert, setFavourite
}

func (s *flakyStore) GetAll(ctx context.Context) ([]domain.PodcastRecord, error) {
	s.mu.Lock()
	err := s.getAllErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.PodcastStore.GetAll(ctx)
}

func (s *flakyStore) UpsertMany(ctx context.Context, records []domain.PodcastRecord) error {
	s.mu.Lock()
	err := s.upsertErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.PodcastStore.UpsertMany(ctx, records)
}

func (s *flakyStore) SetFavourite(ctx context.Context, id string, favourite bool) error {
	s.mu.Lock()
	err := s.setFavouriteErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.PodcastStore.SetFavourite(ctx, id, favourite)
}

// eventStore hands change events to the cache from the events channel
// instead of the store's own notifier.
type eventStore struct {
	domain.PodcastStore
	events chan []domain.PodcastRecord
}

func (s *eventStore) ObserveAll(ctx context.Context) <-chan []domain.PodcastRecord {
	return s.events
}

func newMemoryStore(t *testing.T) *store.BoltStore {
	t.Helper()
	s, err := store.NewBoltStore("", "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestCache(t *testing.T, source domain.PodcastSource, st domain.PodcastStore) *Cache {
	t.Helper()
	c := NewCache(source, st, nil, WithViewID(t.Name()))
	t.Cleanup(c.Close)
	return c
}

// recorder collects every snapshot delivered to a subscriber.
type recorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (r *recorder) record(s domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func ids(entries []domain.Podcast) []string {
	out := make([]string, len(entries))
	for i, p := range entries {
		out[i] = p.ID
	}
	return out
}

func waitSnapshot(t *testing.T, feed <-chan domain.Snapshot, cond func(domain.Snapshot) bool) domain.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-feed:
			require.True(t, ok, "snapshot feed closed unexpectedly")
			if cond(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return domain.Snapshot{}
		}
	}
}
