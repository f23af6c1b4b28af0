package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/podcasts/internal/domain"
)

// ToggleFavourite flips the favourite flag of id and returns the new value.
// An entry in the accumulated list is patched and emitted before the store
// write, and reverted if the write fails. Ids outside the list are resolved
// through the store. The Remote Source is never called.
func (c *Cache) ToggleFavourite(ctx context.Context, id string) (bool, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, domain.ErrCacheClosed
	}
	entry, inList := c.entries.get(id)
	c.mu.Unlock()

	previous := entry.IsFavourite
	if !inList {
		rec, err := c.store.GetByID(ctx, id)
		if err != nil {
			err = storeError(err)
			c.logger.Warn("failed to resolve podcast for toggle", "podcastID", id, "error", err)
			c.report(err)
			return false, err
		}
		previous = rec.IsFavourite
	}
	next := !previous

	if inList {
		c.patch(id, next, nil)
	}

	if err := c.store.SetFavourite(ctx, id, next); err != nil {
		err = storeError(err)
		c.logger.Warn("reverting favourite toggle", "podcastID", id, "error", err)
		if inList {
			c.patch(id, previous, err)
		} else {
			c.report(err)
		}
		return previous, err
	}

	c.logger.Info("toggled favourite", "podcastID", id, "favourite", next)
	return next, nil
}

// patch sets one entry's flag and emits. A non-nil err is attached to the
// snapshot as a non-fatal error; state and cursor are not touched.
func (c *Cache) patch(id string, favourite bool, err error) {
	c.mu.Lock()
	c.entries.setFavourite(id, favourite)
	if err != nil {
		c.err = err
	}
	e := c.prepareLocked()
	c.mu.Unlock()
	c.emit(e)
}

func (c *Cache) report(err error) {
	c.mu.Lock()
	c.err = err
	e := c.prepareLocked()
	c.mu.Unlock()
	c.emit(e)
}

// storeError makes sure store failures classify as ErrStore while keeping
// ErrNotFound and ErrStoreClosed visible to errors.Is.
func storeError(err error) error {
	if errors.Is(err, domain.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStore, err)
}
