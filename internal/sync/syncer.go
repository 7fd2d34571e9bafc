// Package sync keeps an in-memory cache consistent with one owner-scoped
// remote collection. A Syncer loads the initial snapshot, consumes the change
// feed, and applies local writes optimistically.
//
// Reconciliation is coarse: any feed event touching the syncer's collection
// triggers a full filtered refetch. That trades bandwidth for simplicity and
// makes delivery order irrelevant beyond the per-subscriber ordering the feed
// already provides.
package sync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/quillapp/quill/internal/cache"
	"github.com/quillapp/quill/internal/errors"
	"github.com/quillapp/quill/internal/remote"
)

// Syncer binds one cache to one remote collection slice.
//
// T is the entity type, D the creation draft, P the update patch. Writes are
// optimistic: the cache is updated as soon as the remote write succeeds, and
// the feed echo later reconciles via a full refetch. Failed writes surface an
// error and leave the cache untouched; there is no retry or rollback.
type Syncer[T cache.Entity, D, P any] struct {
	coll       remote.Collection[T, D, P]
	feed       remote.Feed
	cache      *cache.Cache[T]
	filter     remote.Filter
	collection string
	logger     *slog.Logger

	// beforeWrite, when set, runs on every draft and patch before it is sent
	// to the remote. Used to attach derived fields such as word counts.
	beforeDraft func(*D)
	beforePatch func(*P)

	mu      sync.Mutex
	started bool
	stop    context.CancelFunc
	done    chan struct{}
}

// Option configures a Syncer.
type Option[T cache.Entity, D, P any] func(*Syncer[T, D, P])

// WithBeforeWrite installs hooks that run on every outgoing draft and patch.
// Either hook may be nil.
func WithBeforeWrite[T cache.Entity, D, P any](draft func(*D), patch func(*P)) Option[T, D, P] {
	return func(s *Syncer[T, D, P]) {
		s.beforeDraft = draft
		s.beforePatch = patch
	}
}

// New creates a Syncer for the given collection slice. Call Start to load the
// initial snapshot and begin consuming the feed.
func New[T cache.Entity, D, P any](
	collection string,
	coll remote.Collection[T, D, P],
	feed remote.Feed,
	c *cache.Cache[T],
	filter remote.Filter,
	logger *slog.Logger,
	opts ...Option[T, D, P],
) *Syncer[T, D, P] {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer[T, D, P]{
		coll:       coll,
		feed:       feed,
		cache:      c,
		filter:     filter,
		collection: collection,
		logger:     logger.With("collection", collection, "owner_id", filter.OwnerID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the cache this syncer maintains.
func (s *Syncer[T, D, P]) Cache() *cache.Cache[T] {
	return s.cache
}

// Start performs the initial fetch, replaces the cache snapshot, and launches
// the feed consumer. It blocks until the first snapshot is loaded so callers
// observe a populated cache on return.
//
// A failed initial fetch leaves the syncer stopped and the cache untouched;
// Start may be called again.
func (s *Syncer[T, D, P]) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	items, err := s.coll.List(ctx, s.filter)
	if err != nil {
		return errors.FetchFailedf("loading %s", s.collection).WithCause(err)
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	events, release, err := s.feed.Subscribe(feedCtx, s.filter.OwnerID)
	if err != nil {
		cancel()
		return errors.FetchFailedf("subscribing to %s feed", s.collection).WithCause(err)
	}

	s.cache.ReplaceAll(items)

	s.started = true
	s.stop = cancel
	s.done = make(chan struct{})

	go s.consume(feedCtx, events, release)
	return nil
}

// Stop cancels the feed subscription and waits for the consumer to drain.
// Idempotent; the cache keeps its last snapshot.
func (s *Syncer[T, D, P]) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	stop()
	<-done
}

// consume is the single goroutine applying feed events. Running alone, it
// preserves the feed's delivery order: each event's refetch completes before
// the next event is looked at.
func (s *Syncer[T, D, P]) consume(ctx context.Context, events <-chan remote.Change, release func()) {
	defer close(s.done)
	defer release()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-events:
			if !ok {
				s.logger.Warn("change feed closed")
				return
			}
			if change.Collection != s.collection {
				continue
			}
			if err := s.Refresh(ctx); err != nil {
				// Keep the stale snapshot; the next event retries.
				s.logger.Error("refetch after change failed", "error", err, "op", change.Op)
			}
		}
	}
}

// Refresh refetches the full filtered collection and replaces the cache
// snapshot. Safe to call at any time, including before Start.
func (s *Syncer[T, D, P]) Refresh(ctx context.Context) error {
	items, err := s.coll.List(ctx, s.filter)
	if err != nil {
		return errors.FetchFailedf("refetching %s", s.collection).WithCause(err)
	}
	s.cache.ReplaceAll(items)
	return nil
}

// Create inserts a draft. On success the returned entity is upserted into the
// cache immediately; on failure the cache is untouched.
func (s *Syncer[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	if s.beforeDraft != nil {
		s.beforeDraft(&draft)
	}

	item, err := s.coll.Insert(ctx, s.filter.OwnerID, draft)
	if err != nil {
		var zero T
		return zero, errors.WriteFailedf("creating %s entry", s.collection).WithCause(err)
	}

	s.cache.UpsertLocal(item)
	return item, nil
}

// Update applies a patch to the entity with the given ID and upserts the
// result into the cache.
func (s *Syncer[T, D, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	if s.beforePatch != nil {
		s.beforePatch(&patch)
	}

	item, err := s.coll.Update(ctx, id, patch)
	if err != nil {
		var zero T
		return zero, errors.WriteFailedf("updating %s entry", s.collection).WithCause(err)
	}

	s.cache.UpsertLocal(item)
	return item, nil
}

// Delete removes the entity with the given ID and drops it from the cache.
func (s *Syncer[T, D, P]) Delete(ctx context.Context, id string) error {
	if err := s.coll.Delete(ctx, id); err != nil {
		return errors.WriteFailedf("deleting %s entry", s.collection).WithCause(err)
	}

	s.cache.RemoveLocal(id)
	return nil
}
