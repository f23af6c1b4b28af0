package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/podcasts/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketPodcasts = []byte("podcasts")
)

// BoltStore implements domain.PodcastStore using BoltDB.
type BoltStore struct {
	db *bolt.DB
	mu sync.RWMutex // Serializes memory-mode access and guards closed

	// Memory-only mode (no persistence): id -> encoded record
	mem    map[string][]byte
	closed bool

	notifier *Notifier
}

var _ domain.PodcastStore = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the store for one catalog source.
// An empty baseDir selects memory-only mode.
func NewBoltStore(baseDir, sourceURL string) (*BoltStore, error) {
	if baseDir == "" {
		return &BoltStore{mem: make(map[string][]byte), notifier: NewNotifier()}, nil
	}

	dir := baseDir
	if sourceURL != "" {
		dir = filepath.Join(baseDir, hashSourceURL(sourceURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create store directory: %v", domain.ErrStore, err)
	}

	dbPath := filepath.Join(dir, "podcasts.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bolt db: %v", domain.ErrStore, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPodcasts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create bucket: %v", domain.ErrStore, err)
	}

	return &BoltStore{db: db, notifier: NewNotifier()}, nil
}

// hashSourceURL keeps favourites from different catalog sources apart.
func hashSourceURL(sourceURL string) string {
	normalized := strings.TrimRight(strings.ToLower(sourceURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *BoltStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.notifier.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// view runs fn over a read-only snapshot of the table.
func (s *BoltStore) view(ctx context.Context, fn func(get func(id string) []byte, each func(func(v []byte) error) error) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	if s.db == nil {
		return fn(
			func(id string) []byte { return s.mem[id] },
			func(visit func(v []byte) error) error {
				for _, v := range s.mem {
					if err := visit(v); err != nil {
						return err
					}
				}
				return nil
			},
		)
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPodcasts)
		return fn(
			func(id string) []byte {
				v := b.Get([]byte(id))
				if v == nil {
					return nil
				}
				// Bolt values are only valid for the life of the transaction
				data := make([]byte, len(v))
				copy(data, v)
				return data
			},
			func(visit func(v []byte) error) error {
				return b.ForEach(func(_, v []byte) error { return visit(v) })
			},
		)
	})
	return wrapBoltErr(err)
}

// update runs fn inside one write transaction.
func (s *BoltStore) update(ctx context.Context, fn func(get func(id string) []byte, put func(id string, v []byte) error) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	if s.db == nil {
		// Stage writes so a failure leaves the table untouched
		staged := make(map[string][]byte)
		err := fn(
			func(id string) []byte {
				if v, ok := staged[id]; ok {
					return v
				}
				return s.mem[id]
			},
			func(id string, v []byte) error {
				staged[id] = v
				return nil
			},
		)
		if err != nil {
			return err
		}
		for id, v := range staged {
			s.mem[id] = v
		}
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPodcasts)
		return fn(
			func(id string) []byte { return b.Get([]byte(id)) },
			func(id string, v []byte) error { return b.Put([]byte(id), v) },
		)
	})
	return wrapBoltErr(err)
}

func wrapBoltErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStore, err)
}

func decodeRecord(data []byte) (domain.PodcastRecord, error) {
	var rec domain.PodcastRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.PodcastRecord{}, fmt.Errorf("%w: decode record: %v", domain.ErrStore, err)
	}
	return rec, nil
}

// === Reads ===

func (s *BoltStore) GetAll(ctx context.Context) ([]domain.PodcastRecord, error) {
	var records []domain.PodcastRecord
	err := s.view(ctx, func(_ func(string) []byte, each func(func([]byte) error) error) error {
		return each(func(v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *BoltStore) GetByID(ctx context.Context, id string) (domain.PodcastRecord, error) {
	var rec domain.PodcastRecord
	err := s.view(ctx, func(get func(string) []byte, _ func(func([]byte) error) error) error {
		data := get(id)
		if data == nil {
			return domain.ErrNotFound
		}
		var err error
		rec, err = decodeRecord(data)
		return err
	})
	return rec, err
}

func (s *BoltStore) ListFavourites(ctx context.Context) ([]domain.PodcastRecord, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	favourites := make([]domain.PodcastRecord, 0, len(all))
	for _, rec := range all {
		if rec.IsFavourite {
			favourites = append(favourites, rec)
		}
	}
	sortByTitle(favourites)
	return favourites, nil
}

// === Writes ===

func (s *BoltStore) UpsertMany(ctx context.Context, records []domain.PodcastRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := s.update(ctx, func(get func(string) []byte, put func(string, []byte) error) error {
		for _, rec := range records {
			if existing := get(rec.ID); existing != nil {
				prev, err := decodeRecord(existing)
				if err != nil {
					return err
				}
				rec.IsFavourite = prev.IsFavourite
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("%w: encode record: %v", domain.ErrStore, err)
			}
			if err := put(rec.ID, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.Notify()
	return nil
}

func (s *BoltStore) SetFavourite(ctx context.Context, id string, favourite bool) error {
	err := s.update(ctx, func(get func(string) []byte, put func(string, []byte) error) error {
		existing := get(id)
		if existing == nil {
			return domain.ErrNotFound
		}
		rec, err := decodeRecord(existing)
		if err != nil {
			return err
		}
		rec.IsFavourite = favourite
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: encode record: %v", domain.ErrStore, err)
		}
		return put(id, data)
	})
	if err != nil {
		return err
	}
	s.notifier.Notify()
	return nil
}

// === Change feed ===

func (s *BoltStore) ObserveAll(ctx context.Context) <-chan []domain.PodcastRecord {
	return s.notifier.Watch(ctx, s.GetAll)
}

func sortByTitle(records []domain.PodcastRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := strings.ToLower(records[i].Title), strings.ToLower(records[j].Title)
		if ti != tj {
			return ti < tj
		}
		return records[i].ID < records[j].ID
	})
}
