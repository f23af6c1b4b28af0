package domain

import "context"

// PodcastStore is the durable local table of podcasts keyed by id.
// It is shared by every catalog view in the process and must be safe for
// concurrent use. Each mutating call is atomic.
type PodcastStore interface {
	// === Reads ===
	GetAll(ctx context.Context) ([]PodcastRecord, error)
	GetByID(ctx context.Context, id string) (PodcastRecord, error) // ErrNotFound if unknown
	ListFavourites(ctx context.Context) ([]PodcastRecord, error)

	// === Writes ===

	// UpsertMany inserts unknown ids as given and replaces the display
	// attributes of known ids. The favourite flag of a known id is kept.
	UpsertMany(ctx context.Context, records []PodcastRecord) error

	// SetFavourite is durable before it returns. ErrNotFound if unknown.
	SetFavourite(ctx context.Context, id string, favourite bool) error

	// === Change feed ===

	// ObserveAll emits the full contents now and again after every committed
	// write. Closed when ctx is done or the store is closed.
	ObserveAll(ctx context.Context) <-chan []PodcastRecord

	// === Lifecycle ===
	Close() error
}
