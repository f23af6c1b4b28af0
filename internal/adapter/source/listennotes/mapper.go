package listennotes

import (
	"fmt"
	"strings"

	"github.com/mmcdole/podcasts/internal/domain"
)

// mapPage converts a best_podcasts response into a domain page.
// Every podcast must carry an id; anything else is a protocol error.
func mapPage(requested int, resp *BestPodcastsResponse) (domain.Page, error) {
	if resp.PageNumber != 0 && resp.PageNumber != requested {
		return domain.Page{}, fmt.Errorf("%w: asked for page %d, got page %d",
			domain.ErrProtocol, requested, resp.PageNumber)
	}

	podcasts := make([]domain.Podcast, 0, len(resp.Podcasts))
	for i := range resp.Podcasts {
		p, err := mapPodcast(&resp.Podcasts[i])
		if err != nil {
			return domain.Page{}, fmt.Errorf("%w: podcast %d on page %d: %v", domain.ErrProtocol, i, requested, err)
		}
		podcasts = append(podcasts, p)
	}

	return domain.Page{
		Number:   requested,
		Podcasts: podcasts,
		HasNext:  resp.HasNext,
		Total:    resp.Total,
	}, nil
}

// mapPodcast converts a Listen Notes podcast to a domain.Podcast.
// The API has no notion of favourites, so IsFavourite stays false.
func mapPodcast(p *Podcast) (domain.Podcast, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return domain.Podcast{}, fmt.Errorf("missing id")
	}

	thumbnail := p.Thumbnail
	if thumbnail == "" {
		thumbnail = p.Image
	}

	return domain.Podcast{
		ID:            id,
		Title:         strings.TrimSpace(p.Title),
		Publisher:     strings.TrimSpace(p.Publisher),
		ThumbnailURL:  thumbnail,
		ImageURL:      p.Image,
		Description:   p.Description,
		TotalEpisodes: p.TotalEpisodes,
		Language:      p.Language,
		Website:       p.Website,
	}, nil
}
