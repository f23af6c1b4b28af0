// Package catalog keeps a paginated, favourite-aware view of the remote
// podcast catalog consistent with the local store.
package catalog

import "github.com/mmcdole/podcasts/internal/domain"

// Merge overlays stored favourite flags onto freshly fetched podcasts.
// Display fields always come from remote; IsFavourite comes from local,
// or false when local does not know the id. Remote order is preserved
// and neither input is modified.
func Merge(remote []domain.Podcast, local []domain.PodcastRecord) []domain.Podcast {
	favourites := favouriteIndex(local)

	merged := make([]domain.Podcast, len(remote))
	for i, p := range remote {
		p.IsFavourite = favourites[p.ID]
		merged[i] = p
	}
	return merged
}

// ApplyFavourites re-applies stored favourite flags to entries already on
// screen. Entries local does not know keep their current flag, so a store
// snapshot taken before a page write cannot clear them.
// Reports whether any flag changed.
func ApplyFavourites(entries []domain.Podcast, local []domain.PodcastRecord) ([]domain.Podcast, bool) {
	favourites := favouriteIndex(local)

	out := make([]domain.Podcast, len(entries))
	changed := false
	for i, p := range entries {
		if fav, ok := favourites[p.ID]; ok && fav != p.IsFavourite {
			p.IsFavourite = fav
			changed = true
		}
		out[i] = p
	}
	return out, changed
}

func favouriteIndex(local []domain.PodcastRecord) map[string]bool {
	index := make(map[string]bool, len(local))
	for _, rec := range local {
		index[rec.ID] = rec.IsFavourite
	}
	return index
}
