// Package client is the embedding surface of the engine: it owns the caches
// and syncers for one signed-in owner, opens autosave editor sessions, runs
// searches over the cached snapshots, and validates input before anything
// touches the remote store.
package client

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/quillapp/quill/internal/autosave"
	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/errors"
	"github.com/quillapp/quill/internal/export"
	"github.com/quillapp/quill/internal/remote"
	"github.com/quillapp/quill/internal/search"
	"github.com/quillapp/quill/internal/sync"
	"github.com/quillapp/quill/internal/validation"
)

// Remote is the host the client runs against. Both the in-process adapter
// and the HTTP client satisfy it.
type Remote interface {
	Books() remote.Collection[domain.Book, domain.BookDraft, domain.BookPatch]
	Documents() remote.Collection[domain.Document, domain.DocumentDraft, domain.DocumentPatch]
	Feed() remote.Feed
}

// Client runs the sync engine for one owner.
type Client struct {
	remote    Remote
	ownerID   string
	validator *validation.Validator
	logger    *slog.Logger
	debounce  time.Duration

	books *sync.BookSyncer
	docs  *sync.DocumentSyncer

	mu     gosync.Mutex
	scoped map[string]*sync.DocumentSyncer
}

// Option configures a Client.
type Option func(*Client)

// WithDebounce sets the autosave debounce window for editors the client opens.
func WithDebounce(d time.Duration) Option {
	return func(c *Client) {
		c.debounce = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the owner. Call Start before reading snapshots.
func New(r Remote, ownerID string, opts ...Option) *Client {
	c := &Client{
		remote:    r,
		ownerID:   ownerID,
		validator: validation.New(),
		logger:    slog.New(slog.DiscardHandler),
		debounce:  autosave.DefaultDebounce,
		scoped:    make(map[string]*sync.DocumentSyncer),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.books = sync.NewBookSyncer(r.Books(), r.Feed(), ownerID, c.logger)
	c.docs = sync.NewDocumentSyncer(r.Documents(), r.Feed(), ownerID, "", c.logger)

	return c
}

// Start loads both snapshots and begins following the change feed.
func (c *Client) Start(ctx context.Context) error {
	if err := c.books.Start(ctx); err != nil {
		return err
	}
	if err := c.docs.Start(ctx); err != nil {
		c.books.Stop()
		return err
	}
	return nil
}

// Close stops every syncer the client owns.
func (c *Client) Close() {
	c.mu.Lock()
	scoped := c.scoped
	c.scoped = make(map[string]*sync.DocumentSyncer)
	c.mu.Unlock()

	for _, s := range scoped {
		s.Stop()
	}
	c.docs.Stop()
	c.books.Stop()
}

// Books returns the cached books, newest first.
func (c *Client) Books() []domain.Book {
	return c.books.Cache().List()
}

// Documents returns the cached documents, newest first. A non-empty bookID
// narrows the snapshot to one book.
func (c *Client) Documents(bookID string) []domain.Document {
	docs := c.docs.Cache().List()
	if bookID == "" {
		return docs
	}

	scoped := docs[:0:0]
	for _, d := range docs {
		if d.BookID == bookID {
			scoped = append(scoped, d)
		}
	}
	return scoped
}

// FindDocument returns a document from the cache by ID.
func (c *Client) FindDocument(id string) (domain.Document, bool) {
	return c.docs.Cache().Find(id)
}

// SubscribeBooks registers fn to run after every books snapshot change.
func (c *Client) SubscribeBooks(fn func()) (cancel func()) {
	return c.books.Cache().Subscribe(fn)
}

// SubscribeDocuments registers fn to run after every documents snapshot change.
func (c *Client) SubscribeDocuments(fn func()) (cancel func()) {
	return c.docs.Cache().Subscribe(fn)
}

// OpenScope starts (or reuses) a syncer narrowed to one book's documents
// and returns it. Scoped syncers live until CloseScope or Close.
func (c *Client) OpenScope(ctx context.Context, bookID string) (*sync.DocumentSyncer, error) {
	c.mu.Lock()
	if s, ok := c.scoped[bookID]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	s := sync.NewDocumentSyncer(c.remote.Documents(), c.remote.Feed(), c.ownerID, bookID, c.logger)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.scoped[bookID]; ok {
		// Lost the race; keep the first one.
		go s.Stop()
		return existing, nil
	}
	c.scoped[bookID] = s
	return s, nil
}

// CloseScope stops and forgets the syncer for one book.
func (c *Client) CloseScope(bookID string) {
	c.mu.Lock()
	s, ok := c.scoped[bookID]
	delete(c.scoped, bookID)
	c.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// CreateBook validates the draft locally, then writes through the syncer.
func (c *Client) CreateBook(ctx context.Context, draft domain.BookDraft) (domain.Book, error) {
	if err := c.validator.Validate(draft); err != nil {
		return domain.Book{}, err
	}
	return c.books.Create(ctx, draft)
}

// UpdateBook validates any title change locally, then writes through the syncer.
func (c *Client) UpdateBook(ctx context.Context, id string, patch domain.BookPatch) (domain.Book, error) {
	if err := c.checkTitle(patch.Title); err != nil {
		return domain.Book{}, err
	}
	return c.books.Update(ctx, id, patch)
}

// DeleteBook removes a book; the host cascades to its documents.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.books.Delete(ctx, id)
}

// CreateDocument validates the draft locally, then writes through the syncer.
// Word count is attached by the syncer's write hook.
func (c *Client) CreateDocument(ctx context.Context, draft domain.DocumentDraft) (domain.Document, error) {
	if err := c.validator.Validate(draft); err != nil {
		return domain.Document{}, err
	}
	return c.docs.Create(ctx, draft)
}

// UpdateDocument validates any title change locally, then writes through the syncer.
func (c *Client) UpdateDocument(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error) {
	if err := c.checkTitle(patch.Title); err != nil {
		return domain.Document{}, err
	}
	return c.docs.Update(ctx, id, patch)
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.docs.Delete(ctx, id)
}

// OpenEditor starts an autosave session over a cached document. The session
// holds its own buffer from here on; snapshot changes don't disturb it.
func (c *Client) OpenEditor(id string, opts ...autosave.Option) (*autosave.Controller, error) {
	doc, ok := c.docs.Cache().Find(id)
	if !ok {
		return nil, errors.NotFoundf("document %s not in snapshot", id)
	}

	opts = append([]autosave.Option{
		autosave.WithDebounce(c.debounce),
		autosave.WithLogger(c.logger),
	}, opts...)

	return autosave.New(c.docs, doc, opts...), nil
}

// Search matches the query against the cached snapshots.
func (c *Client) Search(query string) search.Result {
	return search.Query(query, c.Books(), c.Documents(""))
}

// Export writes a cached document to dir as Markdown and returns the path.
func (c *Client) Export(dir, id string) (string, error) {
	doc, ok := c.docs.Cache().Find(id)
	if !ok {
		return "", errors.NotFoundf("document %s not in snapshot", id)
	}
	return export.WriteFile(dir, doc)
}

// checkTitle rejects patches that would blank out a title.
func (c *Client) checkTitle(title *string) error {
	if title == nil {
		return nil
	}
	titled := domain.BookDraft{Title: *title}
	return c.validator.StructPartial(titled, "Title")
}
