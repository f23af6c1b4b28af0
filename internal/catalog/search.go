package catalog

import (
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/sahilm/fuzzy"
)

// titleSource implements sahilm/fuzzy.Source over podcast titles
type titleSource []domain.Podcast

// String returns the lowercase title at index i (implements fuzzy.Source)
func (s titleSource) String(i int) string { return strings.ToLower(s[i].Title) }

// Len returns the number of podcasts (implements fuzzy.Source)
func (s titleSource) Len() int { return len(s) }

// Filter returns the podcasts whose title fuzzy-matches query, best match
// first. An empty query returns entries unchanged.
func Filter(entries []domain.Podcast, query string) []domain.Podcast {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), titleSource(entries))
	out := make([]domain.Podcast, len(matches))
	for i, m := range matches {
		out[i] = entries[m.Index]
	}
	return out
}

// FilterByPublisher returns the podcasts whose publisher contains the
// characters of query in order, ignoring case. Closest matches come first.
func FilterByPublisher(entries []domain.Podcast, query string) []domain.Podcast {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	publishers := make([]string, len(entries))
	for i, p := range entries {
		publishers[i] = p.Publisher
	}

	ranks := fuzzysearch.RankFindFold(query, publishers)
	sort.Stable(ranks)

	out := make([]domain.Podcast, len(ranks))
	for i, r := range ranks {
		out[i] = entries[r.OriginalIndex]
	}
	return out
}
