package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/mmcdole/podcasts/internal/store"
	"github.com/mmcdole/podcasts/internal/store/postgres"
	"github.com/mmcdole/podcasts/internal/store/sqlite"
)

const postgresTimeout = 5 * time.Second

// OpenStore opens the local store selected by cfg.Driver. Bolt keeps one
// database per source URL; sqlite and postgres share one table.
func OpenStore(ctx context.Context, cfg *StoreConfig, sourceURL string, logger *slog.Logger) (domain.PodcastStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case StoreDriverBolt, "":
		logger.Debug("opening bolt store", "path", cfg.Path)
		return store.NewBoltStore(cfg.Path, sourceURL)

	case StoreDriverSQLite:
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("%w: create store directory: %v", domain.ErrStore, err)
		}
		dbPath := filepath.Join(cfg.Path, "podcasts.sqlite")
		logger.Debug("opening sqlite store", "path", dbPath)
		return sqlite.New(dbPath)

	case StoreDriverPostgres:
		logger.Debug("opening postgres store")
		return postgres.New(ctx, cfg.DSN, postgresTimeout)

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
