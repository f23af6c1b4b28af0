package catalog

import (
	"context"
	"sync"

	"github.com/mmcdole/podcasts/internal/domain"
)

type subscriber struct {
	fn func(domain.Snapshot)
	ch chan domain.Snapshot // Set for Observe subscribers; closed on removal
}

// registry delivers snapshots to subscribers in emission order.
// Snapshots older than the last delivered one are dropped.
type registry struct {
	mu      sync.Mutex
	subs    map[int]*subscriber
	nextID  int
	last    domain.Snapshot
	lastSeq uint64
	closed  bool
	done    chan struct{}
}

func newRegistry(initial domain.Snapshot) *registry {
	return &registry{
		subs: make(map[int]*subscriber),
		last: initial,
		done: make(chan struct{}),
	}
}

func (r *registry) publish(seq uint64, snap domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || seq <= r.lastSeq {
		return
	}
	r.last = snap
	r.lastSeq = seq

	for _, sub := range r.subs {
		sub.deliver(snap)
	}
}

// add registers sub and replays the latest snapshot to it.
func (r *registry) add(sub *subscriber) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, false
	}
	id := r.nextID
	r.nextID++
	r.subs[id] = sub
	sub.deliver(r.last)
	return id, true
}

func (r *registry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.subs[id]; ok {
		delete(r.subs, id)
		sub.stop()
	}
}

func (r *registry) subscribe(fn func(domain.Snapshot)) func() {
	id, ok := r.add(&subscriber{fn: fn})
	if !ok {
		return func() {}
	}
	var once sync.Once
	return func() { once.Do(func() { r.remove(id) }) }
}

func (r *registry) observe(ctx context.Context) <-chan domain.Snapshot {
	ch := make(chan domain.Snapshot, 1)
	id, ok := r.add(&subscriber{ch: ch})
	if !ok {
		close(ch)
		return ch
	}

	go func() {
		select {
		case <-ctx.Done():
			r.remove(id)
		case <-r.done:
		}
	}()
	return ch
}

func (r *registry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for id, sub := range r.subs {
		delete(r.subs, id)
		sub.stop()
	}
	close(r.done)
}

func (s *subscriber) deliver(snap domain.Snapshot) {
	if s.ch == nil {
		s.fn(snap)
		return
	}
	// Conflate: a consumer only ever needs the newest snapshot
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

func (s *subscriber) stop() {
	if s.ch != nil {
		close(s.ch)
	}
}
