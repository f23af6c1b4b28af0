package store

import (
	"context"
	"sync"

	"github.com/mmcdole/podcasts/internal/domain"
)

// LoadFunc reads the full store contents for a change feed.
type LoadFunc func(ctx context.Context) ([]domain.PodcastRecord, error)

// Notifier fans "contents changed" signals out to ObserveAll subscribers.
// Signals are coalesced per subscriber: a subscriber that is slow to receive
// gets one reload with the latest contents instead of every intermediate one.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan struct{})}
}

// Notify signals every subscriber. Never blocks.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default: // Already pending
		}
	}
}

// Watch starts a change feed. The current contents are emitted first.
// The returned channel is closed when ctx is done or the notifier is closed.
func (n *Notifier) Watch(ctx context.Context, load LoadFunc) <-chan []domain.PodcastRecord {
	out := make(chan []domain.PodcastRecord)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(out)
		return out
	}
	id := n.nextID
	n.nextID++
	signal := make(chan struct{}, 1)
	signal <- struct{}{} // Initial emission
	n.subs[id] = signal
	n.mu.Unlock()

	go func() {
		defer close(out)
		defer n.unsubscribe(id)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signal:
				if !ok {
					return
				}
			}

			records, err := load(ctx)
			if err != nil {
				// Skip this round; the next write signals again
				continue
			}

			select {
			case out <- records:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (n *Notifier) unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.subs[id]; ok {
		delete(n.subs, id)
		if !n.closed {
			close(ch)
		}
	}
}

// Close ends every feed.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.subs {
		close(ch)
	}
}
