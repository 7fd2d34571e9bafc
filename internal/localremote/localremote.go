// Package localremote adapts the badger store and feed hub to the
// engine-facing remote interfaces. Used by the single-binary deployment and
// throughout the tests; a client talking to a server on another host uses
// httpremote instead.
package localremote

import (
	"context"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/feed"
	"github.com/quillapp/quill/internal/remote"
	"github.com/quillapp/quill/internal/store"
)

// Remote is the in-process remote store.
type Remote struct {
	store *store.Store
	hub   *feed.Hub
}

// New wraps a store and hub. The store must have been created with the hub as
// its change emitter, or subscribers will never hear about writes.
func New(s *store.Store, hub *feed.Hub) *Remote {
	return &Remote{store: s, hub: hub}
}

// Books returns the books collection.
func (r *Remote) Books() remote.Collection[domain.Book, domain.BookDraft, domain.BookPatch] {
	return books{store: r.store}
}

// Documents returns the documents collection.
func (r *Remote) Documents() remote.Collection[domain.Document, domain.DocumentDraft, domain.DocumentPatch] {
	return documents{store: r.store}
}

// Feed returns the change feed.
func (r *Remote) Feed() remote.Feed {
	return r.hub
}

type books struct {
	store *store.Store
}

func (c books) List(ctx context.Context, f remote.Filter) ([]domain.Book, error) {
	return c.store.ListBooks(ctx, f.OwnerID)
}

func (c books) Insert(ctx context.Context, ownerID string, draft domain.BookDraft) (domain.Book, error) {
	book, err := c.store.CreateBook(ctx, ownerID, draft)
	if err != nil {
		return domain.Book{}, err
	}
	return *book, nil
}

func (c books) Update(ctx context.Context, id string, patch domain.BookPatch) (domain.Book, error) {
	book, err := c.store.UpdateBook(ctx, id, patch)
	if err != nil {
		return domain.Book{}, err
	}
	return *book, nil
}

func (c books) Delete(ctx context.Context, id string) error {
	return c.store.DeleteBook(ctx, id)
}

type documents struct {
	store *store.Store
}

func (c documents) List(ctx context.Context, f remote.Filter) ([]domain.Document, error) {
	return c.store.ListDocuments(ctx, f)
}

func (c documents) Insert(ctx context.Context, ownerID string, draft domain.DocumentDraft) (domain.Document, error) {
	doc, err := c.store.CreateDocument(ctx, ownerID, draft)
	if err != nil {
		return domain.Document{}, err
	}
	return *doc, nil
}

func (c documents) Update(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error) {
	doc, err := c.store.UpdateDocument(ctx, id, patch)
	if err != nil {
		return domain.Document{}, err
	}
	return *doc, nil
}

func (c documents) Delete(ctx context.Context, id string) error {
	return c.store.DeleteDocument(ctx, id)
}
