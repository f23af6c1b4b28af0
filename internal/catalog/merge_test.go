package catalog

import (
	"testing"

	"github.com/mmcdole/podcasts/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	record := func(id string, fav bool) domain.PodcastRecord {
		return domain.PodcastRecord{ID: id, Title: "stored " + id, Publisher: "stale", IsFavourite: fav}
	}

	tests := []struct {
		name   string
		remote []domain.Podcast
		local  []domain.PodcastRecord
		want   map[string]bool
	}{
		{
			name:   "empty local marks nothing",
			remote: []domain.Podcast{podcast("1", "One"), podcast("2", "Two")},
			want:   map[string]bool{"1": false, "2": false},
		},
		{
			name:   "stored favourite wins over remote default",
			remote: []domain.Podcast{podcast("42", "Answer")},
			local:  []domain.PodcastRecord{record("42", true)},
			want:   map[string]bool{"42": true},
		},
		{
			name:   "stored non-favourite clears remote flag",
			remote: []domain.Podcast{{ID: "7", Title: "Seven", IsFavourite: true}},
			local:  []domain.PodcastRecord{record("7", false)},
			want:   map[string]bool{"7": false},
		},
		{
			name:   "unknown ids default to false",
			remote: []domain.Podcast{{ID: "9", Title: "Nine", IsFavourite: true}},
			local:  []domain.PodcastRecord{record("1", true)},
			want:   map[string]bool{"9": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(tt.remote, tt.local)

			assert.Len(t, merged, len(tt.remote))
			for i, p := range merged {
				assert.Equal(t, tt.remote[i].ID, p.ID, "order must be preserved")
				assert.Equal(t, tt.remote[i].Title, p.Title, "display fields come from remote")
				assert.Equal(t, tt.remote[i].Publisher, p.Publisher)
				assert.Equal(t, tt.want[p.ID], p.IsFavourite, "favourite for %s", p.ID)
			}
		})
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	remote := []domain.Podcast{podcast("42", "Answer")}
	local := []domain.PodcastRecord{{ID: "42", IsFavourite: true}}

	merged := Merge(remote, local)

	assert.True(t, merged[0].IsFavourite)
	assert.False(t, remote[0].IsFavourite)
}

func TestApplyFavourites(t *testing.T) {
	entries := []domain.Podcast{podcast("1", "One"), podcast("2", "Two"), podcast("3", "Three")}
	entries[2].IsFavourite = true

	t.Run("patches flags the store knows", func(t *testing.T) {
		updated, changed := ApplyFavourites(entries, []domain.PodcastRecord{
			{ID: "1", IsFavourite: true},
			{ID: "3", IsFavourite: false},
		})

		assert.True(t, changed)
		assert.Equal(t, []string{"1", "2", "3"}, ids(updated))
		assert.True(t, updated[0].IsFavourite)
		assert.False(t, updated[1].IsFavourite)
		assert.False(t, updated[2].IsFavourite)
		assert.True(t, entries[2].IsFavourite, "input must not be modified")
	})

	t.Run("ids missing from the store keep their flag", func(t *testing.T) {
		updated, changed := ApplyFavourites(entries, nil)

		assert.False(t, changed)
		assert.True(t, updated[2].IsFavourite)
	})

	t.Run("reports no change when flags already match", func(t *testing.T) {
		_, changed := ApplyFavourites(entries, []domain.PodcastRecord{{ID: "3", IsFavourite: true}})
		assert.False(t, changed)
	})
}
