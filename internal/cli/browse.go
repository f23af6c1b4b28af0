package cli

import (
	"fmt"

	"github.com/mmcdole/podcasts/internal/catalog"
	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/spf13/cobra"
)

// BrowseOptions holds options for the browse command.
type BrowseOptions struct {
	Pages  int
	Filter string
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(root *RootOptions) *cobra.Command {
	opts := &BrowseOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List the best podcasts",
		Long:  "Fetch pages of the best podcasts listing, merged with your favourites (marked *).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, root, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Pages, "pages", "p", 0, "Number of pages to load (default catalog.page_limit)")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "Fuzzy filter on titles")

	return cmd
}

func runBrowse(cmd *cobra.Command, root *RootOptions, opts *BrowseOptions) error {
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

	pages := opts.Pages
	if pages <= 0 {
		pages = s.cfg.Catalog.PageLimit
	}

	var loadErr error
	for i := 0; i < pages; i++ {
		if loadErr = cache.LoadNextPage(ctx); loadErr != nil {
			break
		}
		if !cache.Snapshot().Cursor.HasMore {
			break
		}
	}

	snap := cache.Snapshot()
	if loadErr != nil && !snap.HasData() {
		return fmt.Errorf("load catalog: %w", loadErr)
	}

	entries := catalog.Filter(snap.Entries, opts.Filter)
	if err := writeTable(cmd.OutOrStdout(), entries); err != nil {
		return err
	}

	if loadErr != nil {
		hint := ""
		if domain.IsRetryable(loadErr) {
			hint = " (run again to retry)"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: showing %d loaded podcasts, page %d failed: %v%s\n",
			len(snap.Entries), snap.Cursor.CurrentPage, loadErr, hint)
	}
	return nil
}
