package domain

import (
	"context"
)

// PodcastSource provides the remote, paginated catalog. It knows nothing
// about favourites.
type PodcastSource interface {
	// FetchPage returns page number page (1-based).
	// Fails with an error wrapping ErrNetwork or ErrProtocol.
	FetchPage(ctx context.Context, page int) (Page, error)
}
