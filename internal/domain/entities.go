package domain

import "fmt"

// Podcast represents one catalog entry as shown to the user.
// Display fields come from the most recent successful fetch; IsFavourite
// always comes from the local store.
type Podcast struct {
	ID            string // Stable remote identifier
	Title         string // Display title
	Publisher     string // Publisher / author name
	ThumbnailURL  string // Small artwork URL
	ImageURL      string // Full-size artwork URL
	Description   string // HTML or plain-text summary
	TotalEpisodes int    // Episode count reported by the remote
	Language      string // e.g. "English"
	Website       string // Publisher website, may be empty

	IsFavourite bool // Local-only state
}

// Record converts the podcast into its persisted row shape.
func (p Podcast) Record(updatedAt int64) PodcastRecord {
	return PodcastRecord{
		ID:            p.ID,
		Title:         p.Title,
		Publisher:     p.Publisher,
		ThumbnailURL:  p.ThumbnailURL,
		ImageURL:      p.ImageURL,
		Description:   p.Description,
		TotalEpisodes: p.TotalEpisodes,
		Language:      p.Language,
		Website:       p.Website,
		IsFavourite:   p.IsFavourite,
		UpdatedAt:     updatedAt,
	}
}

// EpisodeLabel returns "1 episode" / "N episodes", or "" when unknown.
func (p Podcast) EpisodeLabel() string {
	switch {
	case p.TotalEpisodes <= 0:
		return ""
	case p.TotalEpisodes == 1:
		return "1 episode"
	default:
		return fmt.Sprintf("%d episodes", p.TotalEpisodes)
	}
}

// PodcastRecord is the local store's row: the display attributes kept as an
// offline snapshot plus the favourite flag the store is authoritative for.
type PodcastRecord struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Publisher     string `json:"publisher"`
	ThumbnailURL  string `json:"thumbnail_url"`
	ImageURL      string `json:"image_url,omitempty"`
	Description   string `json:"description"`
	TotalEpisodes int    `json:"total_episodes,omitempty"`
	Language      string `json:"language,omitempty"`
	Website       string `json:"website,omitempty"`
	IsFavourite   bool   `json:"is_favourite"`
	UpdatedAt     int64  `json:"updated_at"` // Unix timestamp of the last display-attribute write
}

// Podcast converts the record back into a catalog entry.
func (r PodcastRecord) Podcast() Podcast {
	return Podcast{
		ID:            r.ID,
		Title:         r.Title,
		Publisher:     r.Publisher,
		ThumbnailURL:  r.ThumbnailURL,
		ImageURL:      r.ImageURL,
		Description:   r.Description,
		TotalEpisodes: r.TotalEpisodes,
		Language:      r.Language,
		Website:       r.Website,
		IsFavourite:   r.IsFavourite,
	}
}

// Page is one page of the remote catalog.
type Page struct {
	Number   int       // Page number that was requested (1-based)
	Podcasts []Podcast // Entries in remote order; IsFavourite is always false here
	HasNext  bool      // Whether the remote has a page after this one
	Total    int       // Total catalog size if the remote reports it, else 0
}

// PageCursor tracks pagination progress.
type PageCursor struct {
	CurrentPage int  // Next page to fetch, starts at 1
	HasMore     bool // False once the remote reported the last page
}

// NewPageCursor returns the cursor every catalog view starts from.
func NewPageCursor() PageCursor {
	return PageCursor{CurrentPage: 1, HasMore: true}
}
