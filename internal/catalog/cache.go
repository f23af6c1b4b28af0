package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/podcasts/internal/domain"
)

// Cache is one logical view of the remote catalog. It owns the page cursor
// and the accumulated list, persists every fetched page to the store and
// keeps favourite flags in step with the store.
type Cache struct {
	source domain.PodcastSource
	store  domain.PodcastStore
	logger *slog.Logger
	viewID string
	now    func() time.Time

	// writeMu serializes toggles, page persistence and store events.
	// It is never held across a Remote Source call.
	writeMu sync.Mutex

	mu         sync.Mutex // Guards the fields below
	state      domain.LoadState
	cursor     domain.PageCursor
	entries    *entryList
	err        error
	generation uint64 // Bumped by Refresh; results of older generations are dropped
	replacing  bool   // Next successful page 1 replaces the list
	seq        uint64
	closed     bool

	subs        *registry
	stopObserve context.CancelFunc
	observeDone chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithViewID sets the id used to tag this view's log lines.
func WithViewID(id string) Option {
	return func(c *Cache) { c.viewID = id }
}

// NewCache creates a view in state Idle at page 1 and starts listening for
// store changes. Call Close when the view goes away.
func NewCache(source domain.PodcastSource, store domain.PodcastStore, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		source:  source,
		store:   store,
		now:     time.Now,
		state:   domain.StateIdle,
		cursor:  domain.NewPageCursor(),
		entries: newEntryList(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.viewID == "" {
		c.viewID = uuid.NewString()
	}
	c.logger = logger.With("view", c.viewID)
	c.subs = newRegistry(c.snapshotLocked())

	ctx, cancel := context.WithCancel(context.Background())
	c.stopObserve = cancel
	c.observeDone = make(chan struct{})
	go c.observeStore(ctx)

	return c
}

// ViewID returns the id this view logs under.
func (c *Cache) ViewID() string {
	return c.viewID
}

// LoadNextPage fetches the page under the cursor. It is a no-op while a
// load is in flight or once the catalog is exhausted. The returned error is
// the one emitted to observers.
func (c *Cache) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrCacheClosed
	}
	if c.state == domain.StateLoading || !c.cursor.HasMore {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("load skipped", "state", state.String())
		return nil
	}
	gen := c.generation
	page := c.cursor.CurrentPage
	c.state = domain.StateLoading
	e := c.prepareLocked()
	c.mu.Unlock()
	c.emit(e)

	return c.load(ctx, gen, page)
}

// Refresh restarts pagination from page 1. The current list stays visible
// until the new first page arrives, then it is replaced.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrCacheClosed
	}
	c.generation++
	gen := c.generation
	c.cursor = domain.NewPageCursor()
	c.replacing = c.entries.len() > 0
	c.state = domain.StateLoading
	c.err = nil
	e := c.prepareLocked()
	c.mu.Unlock()
	c.emit(e)

	c.logger.Info("refreshing catalog")
	return c.load(ctx, gen, 1)
}

func (c *Cache) load(ctx context.Context, gen uint64, page int) error {
	start := time.Now()
	result, err := c.source.FetchPage(ctx, page)
	if err != nil {
		c.logger.Error("failed to fetch page", "page", page, "error", err)
		return c.fail(gen, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.isCurrent(gen) {
		c.logger.Debug("discarding superseded page", "page", page)
		return nil
	}

	if len(result.Podcasts) == 0 {
		c.mu.Lock()
		if c.replacing {
			// The refreshed catalog is empty; drop what the remote no longer returns
			c.entries = newEntryList()
			c.replacing = false
		}
		c.cursor.HasMore = false
		c.state = domain.StateExhausted
		c.err = nil
		e := c.prepareLocked()
		c.mu.Unlock()
		c.emit(e)
		c.logger.Info("catalog exhausted", "page", page)
		return nil
	}

	local, err := c.store.GetAll(ctx)
	if err != nil {
		// Favourite state unknown: treat as not favourite rather than fail the page
		c.logger.Warn("failed to read favourites, merging without them", "page", page, "error", err)
		local = nil
	}
	merged := Merge(result.Podcasts, local)

	ts := c.now().Unix()
	records := make([]domain.PodcastRecord, len(merged))
	for i, p := range merged {
		records[i] = p.Record(ts)
	}
	if err := c.store.UpsertMany(ctx, records); err != nil {
		err = storeError(err)
		c.logger.Error("failed to persist page", "page", page, "error", err)
		return c.fail(gen, err)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded page", "page", page)
		return nil
	}
	if c.replacing {
		c.entries = newEntryList()
		c.replacing = false
	}
	appended := 0
	for _, p := range merged {
		if c.entries.upsert(p) {
			appended++
		}
	}
	c.cursor.CurrentPage = page + 1
	c.cursor.HasMore = result.HasNext
	if c.cursor.HasMore {
		c.state = domain.StateLoaded
	} else {
		c.state = domain.StateExhausted
	}
	c.err = nil
	e := c.prepareLocked()
	c.mu.Unlock()
	c.emit(e)

	c.logger.Info("loaded page",
		"page", page,
		"count", len(merged),
		"appended", appended,
		"hasNext", result.HasNext,
		"duration", time.Since(start))
	return nil
}

// fail records err for generation gen. Cursor and list are left untouched
// so the same page is retried next time.
func (c *Cache) fail(gen uint64, err error) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return err
	}
	c.state = domain.StateFailed
	c.err = err
	e := c.prepareLocked()
	c.mu.Unlock()
	c.emit(e)
	return err
}

func (c *Cache) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

// observeStore re-applies favourite flags whenever the store changes, so a
// toggle made through another view shows up without a fetch.
func (c *Cache) observeStore(ctx context.Context) {
	defer close(c.observeDone)

	for range c.store.ObserveAll(ctx) {
		c.applyStore(ctx)
	}
}

// applyStore treats a store event as a change signal only. The feed's
// snapshot may predate a toggle made since, so the store is re-read under
// writeMu where no toggle or page write can interleave.
func (c *Cache) applyStore(ctx context.Context) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	skip := c.closed || c.entries.len() == 0
	c.mu.Unlock()
	if skip {
		return
	}

	records, err := c.store.GetAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("failed to read store after change", "error", err)
		}
		return
	}

	c.mu.Lock()
	if c.closed || c.entries.len() == 0 {
		c.mu.Unlock()
		return
	}
	updated, changed := ApplyFavourites(c.entries.items, records)
	if !changed {
		c.mu.Unlock()
		return
	}
	c.entries.replaceItems(updated)
	e := c.prepareLocked()
	c.mu.Unlock()
	c.emit(e)

	c.logger.Debug("applied store change", "records", len(records))
}

// Snapshot returns the current state of the view.
func (c *Cache) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Entry returns the accumulated entry with the given id.
func (c *Cache) Entry(id string) (domain.Podcast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.get(id)
}

// Subscribe registers fn and immediately replays the current snapshot to it.
// fn runs on the emitting goroutine. It may read Snapshot or Entry but must
// not call Cache commands or Close. The returned func removes the subscription.
func (c *Cache) Subscribe(fn func(domain.Snapshot)) (cancel func()) {
	return c.subs.subscribe(fn)
}

// Observe returns a channel carrying the current snapshot and every later
// one. A slow reader only sees the newest snapshot. The channel is closed
// when ctx is done or the Cache is closed.
func (c *Cache) Observe(ctx context.Context) <-chan domain.Snapshot {
	return c.subs.observe(ctx)
}

// Close stops store observation and drops every subscriber. In-flight loads
// and toggles still finish their store writes, but nothing is emitted.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.subs.close()
	c.stopObserve()
	<-c.observeDone
	c.logger.Debug("catalog view closed")
}

func (c *Cache) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Entries:   c.entries.snapshot(),
		IsLoading: c.state == domain.StateLoading,
		Err:       c.err,
		State:     c.state,
		Cursor:    c.cursor,
	}
}

// emission is a snapshot taken under c.mu, published after it is released.
// The sequence number lets the registry drop snapshots overtaken in flight.
type emission struct {
	seq  uint64
	snap domain.Snapshot
	ok   bool
}

func (c *Cache) prepareLocked() emission {
	if c.closed {
		return emission{}
	}
	c.seq++
	return emission{seq: c.seq, snap: c.snapshotLocked(), ok: true}
}

func (c *Cache) emit(e emission) {
	if e.ok {
		c.subs.publish(e.seq, e.snap)
	}
}
