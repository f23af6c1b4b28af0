package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/podcasts/internal/adapter"
	"github.com/mmcdole/podcasts/internal/adapter/source/listennotes"
	"github.com/mmcdole/podcasts/internal/domain"
)

// NewClient creates the remote catalog for the configured source type.
// This factory function abstracts away the specific backend implementation.
func NewClient(cfg *adapter.SourceConfig, logger *slog.Logger) (domain.PodcastSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("source config is nil")
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("source URL is required")
	}

	switch cfg.Type {
	case adapter.SourceTypeListenNotes:
		return listennotes.NewClient(listennotes.Config{
			BaseURL:           cfg.URL,
			APIKey:            cfg.APIKey,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        cfg.MaxRetries,
		}, logger), nil

	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}
