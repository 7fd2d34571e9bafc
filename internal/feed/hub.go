// Package feed implements the change-feed hub: the store publishes a Change
// for every successful write, and subscribers (in-process syncers, the SSE
// stream handler) receive the events for their owner.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillapp/quill/internal/remote"
)

// subscriberBuffer is the per-subscriber channel depth. Subscribers that
// fall further behind than this lose events; the reload-on-change model
// makes that harmless as long as one event eventually lands.
const subscriberBuffer = 64

// subscriber is one registered change-feed consumer.
type subscriber struct {
	id          string
	ownerID     string
	events      chan remote.Change
	connectedAt time.Time
}

// Hub fans change events out to subscribers, filtered by owner.
//
// Delivery is non-blocking: a slow subscriber drops events rather than
// stalling store writes.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		subs:   make(map[string]*subscriber),
		logger: logger,
	}
}

// Publish delivers a change to every subscriber registered for its owner.
// Implements the store's ChangeEmitter. Safe to call after Close (no-op).
func (h *Hub) Publish(change remote.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	var delivered, dropped int
	for _, sub := range h.subs {
		if sub.ownerID != change.OwnerID {
			continue
		}
		select {
		case sub.events <- change:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped change for slow subscriber",
				slog.String("subscriber_id", sub.id),
				slog.String("collection", change.Collection),
				slog.String("op", string(change.Op)))
		}
	}

	h.logger.Debug("change published",
		slog.String("collection", change.Collection),
		slog.String("op", string(change.Op)),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// Subscribe registers a consumer for one owner's changes. The channel closes
// when the subscription is cancelled, the context ends, or the hub closes.
// Implements remote.Feed.
func (h *Hub) Subscribe(ctx context.Context, ownerID string) (<-chan remote.Change, func(), error) {
	sub := &subscriber{
		id:          uuid.NewString(),
		ownerID:     ownerID,
		events:      make(chan remote.Change, subscriberBuffer),
		connectedAt: time.Now(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.events)
		return sub.events, func() {}, nil
	}
	h.subs[sub.id] = sub
	total := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("feed subscriber connected",
		slog.String("subscriber_id", sub.id),
		slog.String("owner_id", ownerID),
		slog.Int("total_subscribers", total))

	var once sync.Once
	cancel := func() {
		once.Do(func() { h.remove(sub) })
	}

	// Release the subscription when the caller's context ends.
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return sub.events, cancel, nil
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close releases all subscriptions and drops future publishes.
// Safe to call multiple times.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		close(sub.events)
	}
	h.subs = make(map[string]*subscriber)

	h.logger.Info("feed hub closed")
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub.id]
	if ok {
		delete(h.subs, sub.id)
	}
	closed := h.closed
	h.mu.Unlock()

	// The hub already closed the channel if it shut down first.
	if ok && !closed {
		close(sub.events)
		h.logger.Debug("feed subscriber disconnected",
			slog.String("subscriber_id", sub.id),
			slog.Duration("duration", time.Since(sub.connectedAt)))
	}
}
