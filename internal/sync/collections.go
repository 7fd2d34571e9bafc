package sync

import (
	"log/slog"

	"github.com/quillapp/quill/internal/cache"
	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/remote"
	"github.com/quillapp/quill/internal/words"
)

// BookSyncer and DocumentSyncer are the two collection slices the engine runs.
type (
	BookSyncer     = Syncer[domain.Book, domain.BookDraft, domain.BookPatch]
	DocumentSyncer = Syncer[domain.Document, domain.DocumentDraft, domain.DocumentPatch]
)

// NewBookSyncer binds a cache to the owner's books collection.
func NewBookSyncer(
	coll remote.Collection[domain.Book, domain.BookDraft, domain.BookPatch],
	feed remote.Feed,
	ownerID string,
	logger *slog.Logger,
) *BookSyncer {
	return New(
		remote.CollectionBooks,
		coll, feed,
		cache.New[domain.Book](),
		remote.Filter{OwnerID: ownerID},
		logger,
	)
}

// NewDocumentSyncer binds a cache to the owner's documents, optionally scoped
// to one book. Every outgoing draft or content-bearing patch gets its
// word_count recomputed from the content, so persisted counts can never drift
// from persisted content.
func NewDocumentSyncer(
	coll remote.Collection[domain.Document, domain.DocumentDraft, domain.DocumentPatch],
	feed remote.Feed,
	ownerID, bookID string,
	logger *slog.Logger,
) *DocumentSyncer {
	return New(
		remote.CollectionDocuments,
		coll, feed,
		cache.New[domain.Document](),
		remote.Filter{OwnerID: ownerID, BookID: bookID},
		logger,
		WithBeforeWrite[domain.Document](attachDraftWordCount, attachPatchWordCount),
	)
}

func attachDraftWordCount(draft *domain.DocumentDraft) {
	draft.WordCount = words.Count(draft.Content)
}

// attachPatchWordCount recounts only when the patch carries content. A patch
// that leaves content alone must leave the stored count alone too.
func attachPatchWordCount(patch *domain.DocumentPatch) {
	if patch.Content == nil {
		return
	}
	n := words.Count(*patch.Content)
	patch.WordCount = &n
}
