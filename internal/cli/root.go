package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/podcasts/internal/adapter"
	"github.com/mmcdole/podcasts/internal/adapter/source"
	"github.com/mmcdole/podcasts/internal/catalog"
	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "podcasts",
		Short:         "Browse the best podcasts and keep favourites",
		Long:          "podcasts pages through a remote podcast catalog and remembers your favourites locally, even offline.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"Config file (default "+adapter.DefaultConfigFile()+")")

	// Add subcommands
	cmd.AddCommand(NewBrowseCommand(opts))
	cmd.AddCommand(NewFavouriteCommand(opts))
	cmd.AddCommand(NewFavouritesCommand(opts))

	return cmd
}

// session is what a command runs against: config, logger and an open store.
type session struct {
	cfg      *adapter.Config
	logger   *slog.Logger
	store    domain.PodcastStore
	closeLog func() error
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg, err := adapter.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to discarding logs rather than refusing to run
		logger, closeLog = adapter.NullLogger(), func() error { return nil }
	}

	st, err := adapter.OpenStore(ctx, &cfg.Store, cfg.Source.URL, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &session{cfg: cfg, logger: logger, store: st, closeLog: closeLog}, nil
}

// newCache builds a catalog view over the configured source.
func (s *session) newCache() (*catalog.Cache, error) {
	src, err := source.NewClient(&s.cfg.Source, s.logger)
	if err != nil {
		return nil, err
	}
	return catalog.NewCache(src, s.store, s.logger), nil
}

func (s *session) Close() error {
	err := s.store.Close()
	return errors.Join(err, s.closeLog())
}
