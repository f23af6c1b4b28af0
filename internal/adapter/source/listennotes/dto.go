package listennotes

// BestPodcastsResponse represents one page of GET /best_podcasts
type BestPodcastsResponse struct {
	ID                 int       `json:"id"`   // Genre id
	Name               string    `json:"name"` // Genre name
	Total              int       `json:"total"`
	HasNext            bool      `json:"has_next"`
	Podcasts           []Podcast `json:"podcasts"`
	PageNumber         int       `json:"page_number"`
	HasPrevious        bool      `json:"has_previous"`
	NextPageNumber     int       `json:"next_page_number"`
	PreviousPageNumber int       `json:"previous_page_number"`
	ListennotesURL     string    `json:"listennotes_url"`
}

// Podcast represents a podcast object from the Listen Notes API
type Podcast struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Publisher       string `json:"publisher"`
	Thumbnail       string `json:"thumbnail"`
	Image           string `json:"image"`
	Description     string `json:"description"`
	TotalEpisodes   int    `json:"total_episodes"`
	Language        string `json:"language"`
	Country         string `json:"country"`
	Website         string `json:"website"`
	RSS             string `json:"rss"`
	GenreIDs        []int  `json:"genre_ids"`
	ExplicitContent bool   `json:"explicit_content"`
	ListennotesURL  string `json:"listennotes_url"`
}

// ErrorResponse represents an error body returned with non-2xx responses
type ErrorResponse struct {
	Message string `json:"message"`
}
