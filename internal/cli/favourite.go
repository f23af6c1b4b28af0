package cli

import (
	"errors"
	"fmt"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/spf13/cobra"
)

// NewFavouriteCommand creates the favourite command.
func NewFavouriteCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "favourite ID",
		Short: "Toggle a podcast's favourite flag",
		Long:  "Toggle the favourite flag of a podcast that has been seen by browse. Works offline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavourite(cmd, root, args[0])
		},
	}
}

func runFavourite(cmd *cobra.Command, root *RootOptions, id string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, root)
	if err != nil {
		return err
	}
	defer s.Close()

	cache, err := s.newCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	favourite, err := cache.ToggleFavourite(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("podcast %s is unknown; run browse first", id)
	}
	if err != nil {
		return fmt.Errorf("toggle favourite: %w", err)
	}

	title := id
	if rec, err := s.store.GetByID(ctx, id); err == nil {
		title = rec.Title
	}

	state := "removed from favourites"
	if favourite {
		state = "added to favourites"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", title, state)
	return nil
}
