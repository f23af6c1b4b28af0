package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/mmcdole/podcasts/internal/store"
)

const defaultTimeout = 5 * time.Second

// Store implements domain.PodcastStore on PostgreSQL.
// Change notifications only cover writes made through this Store.
type Store struct {
	db       *pgxpool.Pool
	ownsPool bool
	timeout  time.Duration

	mu       sync.RWMutex
	closed   bool
	notifier *store.Notifier
}

var _ domain.PodcastStore = (*Store)(nil)

// New connects to dsn and prepares the schema.
func New(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", domain.ErrStore, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", domain.ErrStore, err)
	}

	s, err := NewWithPool(ctx, pool, timeout)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.ownsPool = true
	return s, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of the pool.
func NewWithPool(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &Store{db: pool, timeout: timeout, notifier: store.NewNotifier()}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS podcasts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		publisher TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		total_episodes INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		is_favourite BOOLEAN NOT NULL DEFAULT false,
		updated_at BIGINT NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_podcasts_favourite ON podcasts (is_favourite) WHERE is_favourite;
	`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.Exec(timeoutCtx, schema); err != nil {
		return fmt.Errorf("%w: migrate: %v", domain.ErrStore, err)
	}
	return nil
}

const selectColumns = `id, title, publisher, thumbnail_url, image_url, description,
	total_episodes, language, website, is_favourite, updated_at`

func scanRecord(row pgx.Row) (domain.PodcastRecord, error) {
	var rec domain.PodcastRecord
	err := row.Scan(
		&rec.ID, &rec.Title, &rec.Publisher, &rec.ThumbnailURL, &rec.ImageURL, &rec.Description,
		&rec.TotalEpisodes, &rec.Language, &rec.Website, &rec.IsFavourite, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *Store) list(ctx context.Context, query string) ([]domain.PodcastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var records []domain.PodcastRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan podcast: %v", domain.ErrStore, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return records, nil
}

func (s *Store) GetAll(ctx context.Context) ([]domain.PodcastRecord, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM podcasts ORDER BY id`)
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.PodcastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.PodcastRecord{}, domain.ErrStoreClosed
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := scanRecord(s.db.QueryRow(timeoutCtx, `SELECT `+selectColumns+` FROM podcasts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PodcastRecord{}, domain.ErrNotFound
		}
		return domain.PodcastRecord{}, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return rec, nil
}

func (s *Store) ListFavourites(ctx context.Context) ([]domain.PodcastRecord, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM podcasts WHERE is_favourite ORDER BY lower(title), id`)
}

func (s *Store) UpsertMany(ctx context.Context, records []domain.PodcastRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	const query = `
	INSERT INTO podcasts (` + selectColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		publisher = EXCLUDED.publisher,
		thumbnail_url = EXCLUDED.thumbnail_url,
		image_url = EXCLUDED.image_url,
		description = EXCLUDED.description,
		total_episodes = EXCLUDED.total_episodes,
		language = EXCLUDED.language,
		website = EXCLUDED.website,
		updated_at = EXCLUDED.updated_at
	`

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := pgx.BeginFunc(timeoutCtx, s.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(query,
				rec.ID, rec.Title, rec.Publisher, rec.ThumbnailURL, rec.ImageURL, rec.Description,
				rec.TotalEpisodes, rec.Language, rec.Website, rec.IsFavourite, rec.UpdatedAt,
			)
		}
		return tx.SendBatch(timeoutCtx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("%w: upsert podcasts: %v", domain.ErrStore, err)
	}

	s.notifier.Notify()
	return nil
}

func (s *Store) SetFavourite(ctx context.Context, id string, favourite bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(timeoutCtx, `UPDATE podcasts SET is_favourite = $2 WHERE id = $1`, id, favourite)
	if err != nil {
		return fmt.Errorf("%w: set favourite: %v", domain.ErrStore, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	s.notifier.Notify()
	return nil
}

func (s *Store) ObserveAll(ctx context.Context) <-chan []domain.PodcastRecord {
	return s.notifier.Watch(ctx, s.GetAll)
}

// Close stops change notifications and releases the pool if New created it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.notifier.Close()
	if s.ownsPool {
		s.db.Close()
	}
	return nil
}
