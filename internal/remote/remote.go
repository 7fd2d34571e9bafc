// Package remote defines the contract between the sync engine and the remote
// store: per-collection CRUD filtered by owner (and optional book scope), and
// a change feed delivering coarse {op, collection, owner} notifications.
//
// Two implementations exist: an in-process adapter over the badger store and
// feed hub (localremote), and an HTTP+SSE client for a store on another host
// (httpremote). The engine never depends on either directly.
package remote

import "context"

// Collection names as they appear on the wire and in change events.
const (
	CollectionBooks     = "books"
	CollectionDocuments = "documents"
)

// Op is the kind of change a feed event describes.
type Op string

// Change-feed operations.
const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is a change-feed event. It carries no entity payload: consumers
// re-fetch their whole filtered collection rather than patching incrementally.
type Change struct {
	Op         Op     `json:"op"`
	Collection string `json:"collection"`
	OwnerID    string `json:"owner_id"`
}

// Filter selects the slice of a collection one syncer owns.
type Filter struct {
	OwnerID string
	// BookID optionally narrows a documents collection to one book.
	BookID string
}

// Collection is owner-scoped CRUD over one remote collection.
//
// The store assigns IDs and timestamps on Insert and bumps UpdatedAt on
// Update. List returns entities ordered by updated_at descending.
type Collection[T, Draft, Patch any] interface {
	List(ctx context.Context, f Filter) ([]T, error)
	Insert(ctx context.Context, ownerID string, draft Draft) (T, error)
	Update(ctx context.Context, id string, patch Patch) (T, error)
	Delete(ctx context.Context, id string) error
}

// Feed delivers change notifications for one owner. Events are delivered
// at-least-once; order across collections is not guaranteed. The returned
// cancel releases the subscription and is safe to call multiple times.
type Feed interface {
	Subscribe(ctx context.Context, ownerID string) (<-chan Change, func(), error)
}
