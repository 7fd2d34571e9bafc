// Package cache provides the in-memory entity collections the sync engine
// keeps consistent with the remote store. A cache holds an ordered snapshot
// of one owner-scoped collection; subscribers (views, search) re-render from
// the snapshot whenever it changes.
package cache

import (
	"slices"
	"sync"
	"time"
)

// Entity is anything a cache can hold. Domain types satisfy it through
// their embedded Syncable.
type Entity interface {
	EntityID() string
	UpdatedTime() time.Time
}

// Cache is an ordered collection of entities keyed by ID.
//
// Ordering is UpdatedTime descending, re-established on every ReplaceAll and
// maintained across local upserts. ReplaceAll carries remote truth and always
// wins over optimistic local state; no ordering between an UpsertLocal and
// the ReplaceAll echoing that same write is promised.
//
// Thread-safe: the feed goroutine replaces snapshots while callers read.
type Cache[T Entity] struct {
	mu      sync.RWMutex
	items   []T
	subs    map[int]func()
	nextSub int
}

// New creates an empty cache.
func New[T Entity]() *Cache[T] {
	return &Cache[T]{
		subs: make(map[int]func()),
	}
}

// List returns the current snapshot. The returned slice is a copy; mutating
// it does not affect the cache.
func (c *Cache[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.items)
}

// Len returns the number of entities in the snapshot.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Find returns the entity with the given ID, if present.
func (c *Cache[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// ReplaceAll atomically replaces the whole snapshot with items, ordered by
// UpdatedTime descending. Subscribers are notified exactly once per call,
// even when items is empty. Idempotent: replacing with an identical payload
// yields an identical snapshot.
func (c *Cache[T]) ReplaceAll(items []T) {
	next := slices.Clone(items)
	sortByUpdatedDesc(next)

	c.mu.Lock()
	c.items = next
	c.mu.Unlock()

	c.notify()
}

// UpsertLocal optimistically inserts or updates a single entity, keyed by ID.
// Used immediately after a successful local write, before the change-feed
// echo reconciles via ReplaceAll.
func (c *Cache[T]) UpsertLocal(item T) {
	c.mu.Lock()
	replaced := false
	for i, existing := range c.items {
		if existing.EntityID() == item.EntityID() {
			c.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append(c.items, item)
	}
	sortByUpdatedDesc(c.items)
	c.mu.Unlock()

	c.notify()
}

// RemoveLocal optimistically deletes the entity with the given ID.
// No-op if the ID is not present.
func (c *Cache[T]) RemoveLocal(id string) {
	c.mu.Lock()
	before := len(c.items)
	c.items = slices.DeleteFunc(c.items, func(item T) bool {
		return item.EntityID() == id
	})
	removed := len(c.items) != before
	c.mu.Unlock()

	if removed {
		c.notify()
	}
}

// Subscribe registers fn to run after every snapshot change. The returned
// cancel releases the subscription; calling it more than once is safe.
func (c *Cache[T]) Subscribe(fn func()) (cancel func()) {
	c.mu.Lock()
	key := c.nextSub
	c.nextSub++
	c.subs[key] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, key)
		c.mu.Unlock()
	}
}

// notify runs all subscriber callbacks outside the snapshot lock.
func (c *Cache[T]) notify() {
	c.mu.RLock()
	fns := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// sortByUpdatedDesc orders newest-first. The sort is stable so entities
// sharing a timestamp keep their relative order across idempotent replaces.
func sortByUpdatedDesc[T Entity](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return b.UpdatedTime().Compare(a.UpdatedTime())
	})
}
