package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/id"
	"github.com/quillapp/quill/internal/remote"
)

// CreateDocument creates a document for the owner. The referenced book must
// exist and belong to the same owner; word_count is stored exactly as the
// draft carries it (the client engine computes it).
func (s *Store) CreateDocument(ctx context.Context, ownerID string, draft domain.DocumentDraft) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, draft.BookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != ownerID {
		return nil, ErrForeignBook
	}

	docID, err := id.Generate(id.PrefixDocument)
	if err != nil {
		return nil, fmt.Errorf("generate document id: %w", err)
	}

	doc := &domain.Document{
		Title:     draft.Title,
		Content:   draft.Content,
		BookID:    draft.BookID,
		OwnerID:   ownerID,
		WordCount: draft.WordCount,
	}
	doc.ID = docID
	doc.InitTimestamps()

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if err := txn.Set([]byte(docPrefix+doc.ID), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(docByOwnerPrefix+ownerID+":"+doc.ID), []byte(doc.ID)); err != nil {
			return err
		}
		// Book index enables scoped listing and cascade deletes.
		return txn.Set([]byte(docByBookPrefix+doc.BookID+":"+doc.ID), []byte(doc.ID))
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "document created",
		slog.String("id", doc.ID),
		slog.String("title", doc.Title),
		slog.String("book_id", doc.BookID),
		slog.Int("word_count", doc.WordCount),
	)
	s.emit(remote.OpInsert, remote.CollectionDocuments, ownerID)
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(docPrefix + docID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// UpdateDocument applies a partial update and bumps UpdatedAt.
// The patch's word_count is stored as given; callers that change content are
// responsible for recomputing it in the same write.
func (s *Store) UpdateDocument(ctx context.Context, docID string, patch domain.DocumentPatch) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc domain.Document
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(docPrefix + docID))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		}); err != nil {
			return err
		}

		patch.Apply(&doc)
		doc.Touch()

		data, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		return txn.Set([]byte(docPrefix+docID), data)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "document updated",
		slog.String("id", docID),
		slog.Int("word_count", doc.WordCount),
	)
	s.emit(remote.OpUpdate, remote.CollectionDocuments, doc.OwnerID)
	return &doc, nil
}

// DeleteDocument removes a document and its index entries.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.GetDocument(ctx, docID)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(docPrefix + docID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(docByOwnerPrefix + doc.OwnerID + ":" + docID)); err != nil {
			return err
		}
		return txn.Delete([]byte(docByBookPrefix + doc.BookID + ":" + docID))
	})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "document deleted",
		slog.String("id", docID),
	)
	s.emit(remote.OpDelete, remote.CollectionDocuments, doc.OwnerID)
	return nil
}

// ListDocuments returns the owner's documents ordered by updated_at
// descending, optionally narrowed to one book.
func (s *Store) ListDocuments(ctx context.Context, f remote.Filter) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexPrefix := docByOwnerPrefix + f.OwnerID + ":"
	if f.BookID != "" {
		indexPrefix = docByBookPrefix + f.BookID + ":"
	}

	var docs []domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := idsByIndex(txn, indexPrefix)
		if err != nil {
			return err
		}
		docs = make([]domain.Document, 0, len(ids))
		for _, docID := range ids {
			item, err := txn.Get([]byte(docPrefix + docID))
			if err != nil {
				return err
			}
			var doc domain.Document
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return err
			}
			// The book index is not owner-qualified; filter here.
			if doc.OwnerID != f.OwnerID {
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	slices.SortStableFunc(docs, func(a, b domain.Document) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return docs, nil
}
