package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/mmcdole/podcasts/internal/store"
	_ "modernc.org/sqlite"
)

// Store implements domain.PodcastStore using SQLite.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	closed   bool
	notifier *store.Notifier
}

var _ domain.PodcastStore = (*Store)(nil)

// New creates a new SQLite-based podcast store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", domain.ErrStore, err)
	}
	return newStore(db)
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open in-memory database: %v", domain.ErrStore, err)
	}
	// Every pooled connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, notifier: store.NewNotifier()}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to initialize database: %v", domain.ErrStore, err)
	}
	return s, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
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
			is_favourite INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_podcasts_favourite ON podcasts(is_favourite);
	`

	_, err := s.db.Exec(schema)
	return err
}

const selectColumns = `id, title, publisher, thumbnail_url, image_url, description,
	total_episodes, language, website, is_favourite, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.PodcastRecord, error) {
	var rec domain.PodcastRecord
	err := row.Scan(
		&rec.ID, &rec.Title, &rec.Publisher, &rec.ThumbnailURL, &rec.ImageURL, &rec.Description,
		&rec.TotalEpisodes, &rec.Language, &rec.Website, &rec.IsFavourite, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.PodcastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query podcasts: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var records []domain.PodcastRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan podcast: %v", domain.ErrStore, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return records, nil
}

// GetAll returns every stored podcast ordered by id.
func (s *Store) GetAll(ctx context.Context) ([]domain.PodcastRecord, error) {
	return s.query(ctx, "SELECT "+selectColumns+" FROM podcasts ORDER BY id")
}

// GetByID retrieves a single podcast.
func (s *Store) GetByID(ctx context.Context, id string) (domain.PodcastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return domain.PodcastRecord{}, domain.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM podcasts WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PodcastRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PodcastRecord{}, fmt.Errorf("%w: failed to get podcast: %v", domain.ErrStore, err)
	}
	return rec, nil
}

// ListFavourites returns favourite podcasts ordered by title.
func (s *Store) ListFavourites(ctx context.Context) ([]domain.PodcastRecord, error) {
	return s.query(ctx, "SELECT "+selectColumns+" FROM podcasts WHERE is_favourite = 1 ORDER BY title COLLATE NOCASE, id")
}

// UpsertMany writes a page of podcasts in one transaction.
// is_favourite is deliberately absent from the conflict update.
func (s *Store) UpsertMany(ctx context.Context, records []domain.PodcastRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO podcasts (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			publisher = excluded.publisher,
			thumbnail_url = excluded.thumbnail_url,
			image_url = excluded.image_url,
			description = excluded.description,
			total_episodes = excluded.total_episodes,
			language = excluded.language,
			website = excluded.website,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare upsert: %v", domain.ErrStore, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.ID, rec.Title, rec.Publisher, rec.ThumbnailURL, rec.ImageURL, rec.Description,
			rec.TotalEpisodes, rec.Language, rec.Website, rec.IsFavourite, rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert podcast %s: %v", domain.ErrStore, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit upsert: %v", domain.ErrStore, err)
	}

	s.notifier.Notify()
	return nil
}

// SetFavourite updates one podcast's favourite flag.
func (s *Store) SetFavourite(ctx context.Context, id string, favourite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, "UPDATE podcasts SET is_favourite = ? WHERE id = ?", favourite, id)
	if err != nil {
		return fmt.Errorf("%w: failed to update favourite: %v", domain.ErrStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	s.notifier.Notify()
	return nil
}

// ObserveAll streams the table contents after every write.
func (s *Store) ObserveAll(ctx context.Context) <-chan []domain.PodcastRecord {
	return s.notifier.Watch(ctx, s.GetAll)
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.notifier.Close()
	return s.db.Close()
}
