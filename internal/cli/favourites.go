package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mmcdole/podcasts/internal/catalog"
	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// FavouritesOptions holds options for the favourites command.
type FavouritesOptions struct {
	Output    string
	Publisher string
}

// NewFavouritesCommand creates the favourites command.
func NewFavouritesCommand(root *RootOptions) *cobra.Command {
	opts := &FavouritesOptions{}

	cmd := &cobra.Command{
		Use:   "favourites",
		Short: "List favourite podcasts",
		Long:  "List favourite podcasts from the local store, ordered by title. Never touches the network.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavourites(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVar(&opts.Publisher, "publisher", "", "Only show publishers matching this text")

	return cmd
}

func runFavourites(cmd *cobra.Command, root *RootOptions, opts *FavouritesOptions) error {
	switch opts.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", opts.Output)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, root)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.store.ListFavourites(ctx)
	if err != nil {
		return fmt.Errorf("list favourites: %w", err)
	}

	podcasts := make([]domain.Podcast, len(records))
	for i, rec := range records {
		podcasts[i] = rec.Podcast()
	}
	podcasts = catalog.FilterByPublisher(podcasts, opts.Publisher)

	out := cmd.OutOrStdout()
	switch opts.Output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(toViews(podcasts))
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(toViews(podcasts))
	default:
		return writeTable(out, podcasts)
	}
}
