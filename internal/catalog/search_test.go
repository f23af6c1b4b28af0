package catalog

import (
	"testing"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	entries := []domain.Podcast{
		podcast("1", "The Daily"),
		podcast("2", "Hardcore History"),
		podcast("3", "Daily Stoic"),
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query returns all", "", []string{"1", "2", "3"}},
		{"whitespace query returns all", "   ", []string{"1", "2", "3"}},
		{"case insensitive", "HISTORY", []string{"2"}},
		{"fuzzy subsequence", "hrdcr", []string{"2"}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(entries, tt.query)))
		})
	}

	t.Run("matches several", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"1", "3"}, ids(Filter(entries, "daily")))
	})
}

func TestFilterByPublisher(t *testing.T) {
	entries := []domain.Podcast{
		{ID: "1", Title: "One", Publisher: "The New York Times"},
		{ID: "2", Title: "Two", Publisher: "Dan Carlin"},
		{ID: "3", Title: "Three", Publisher: "NYT"},
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterByPublisher(entries, "")))
	assert.Equal(t, []string{"2"}, ids(FilterByPublisher(entries, "carlin")))
	assert.Equal(t, []string{"3", "1"}, ids(FilterByPublisher(entries, "nyt")), "closest match first")
	assert.Empty(t, FilterByPublisher(entries, "zzz"))
}
