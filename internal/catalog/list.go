package catalog

import "github.com/mmcdole/podcasts/internal/domain"

// entryList is the accumulated, ordered list shown to observers.
// Positions never change once assigned; index maps id -> position.
type entryList struct {
	items []domain.Podcast
	index map[string]int
}

func newEntryList() *entryList {
	return &entryList{index: make(map[string]int)}
}

// upsert appends p, or replaces the entry with the same id in place.
func (l *entryList) upsert(p domain.Podcast) (appended bool) {
	if i, ok := l.index[p.ID]; ok {
		l.items[i] = p
		return false
	}
	l.index[p.ID] = len(l.items)
	l.items = append(l.items, p)
	return true
}

func (l *entryList) get(id string) (domain.Podcast, bool) {
	i, ok := l.index[id]
	if !ok {
		return domain.Podcast{}, false
	}
	return l.items[i], true
}

// setFavourite patches one entry. Returns false if id is not in the list.
func (l *entryList) setFavourite(id string, favourite bool) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.items[i].IsFavourite = favourite
	return true
}

// replaceItems swaps in items that have the same ids in the same order.
func (l *entryList) replaceItems(items []domain.Podcast) {
	l.items = items
}

func (l *entryList) len() int {
	return len(l.items)
}

// snapshot returns a copy safe to hand to observers.
func (l *entryList) snapshot() []domain.Podcast {
	out := make([]domain.Podcast, len(l.items))
	copy(out, l.items)
	return out
}
