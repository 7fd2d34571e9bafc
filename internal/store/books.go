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

// CreateBook creates a book for the owner. The store assigns the ID and
// timestamps and normalizes the color theme onto the closed set.
func (s *Store) CreateBook(ctx context.Context, ownerID string, draft domain.BookDraft) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book id: %w", err)
	}

	book := &domain.Book{
		Title:       draft.Title,
		Description: draft.Description,
		ColorTheme:  domain.NormalizeColorTheme(draft.ColorTheme),
		OwnerID:     ownerID,
	}
	book.ID = bookID
	book.InitTimestamps()

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}
		if err := txn.Set([]byte(bookPrefix+book.ID), data); err != nil {
			return err
		}
		// Owner index for scoped listing.
		return txn.Set([]byte(bookByOwnerPrefix+ownerID+":"+book.ID), []byte(book.ID))
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
		slog.String("id", book.ID),
		slog.String("title", book.Title),
		slog.String("owner_id", ownerID),
	)
	s.emit(remote.OpInsert, remote.CollectionBooks, ownerID)
	return book, nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var book domain.Book
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bookPrefix + bookID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &book)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// UpdateBook applies a partial update and bumps UpdatedAt.
func (s *Store) UpdateBook(ctx context.Context, bookID string, patch domain.BookPatch) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var book domain.Book
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bookPrefix + bookID))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &book)
		}); err != nil {
			return err
		}

		patch.Apply(&book)
		book.Touch()

		data, err := json.Marshal(&book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}
		return txn.Set([]byte(bookPrefix+bookID), data)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "book updated",
		slog.String("id", bookID),
	)
	s.emit(remote.OpUpdate, remote.CollectionBooks, book.OwnerID)
	return &book, nil
}

// DeleteBook removes a book and all documents inside it. The cascade mirrors
// the foreign-key behavior of the original schema; scoped caches reconverge
// from the accompanying documents change event.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	var docsRemoved int
	err = s.db.Update(func(txn *badger.Txn) error {
		docIDs, err := idsByIndex(txn, docByBookPrefix+bookID+":")
		if err != nil {
			return err
		}
		for _, docID := range docIDs {
			if err := txn.Delete([]byte(docPrefix + docID)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(docByOwnerPrefix + book.OwnerID + ":" + docID)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(docByBookPrefix + bookID + ":" + docID)); err != nil {
				return err
			}
		}
		docsRemoved = len(docIDs)

		if err := txn.Delete([]byte(bookPrefix + bookID)); err != nil {
			return err
		}
		return txn.Delete([]byte(bookByOwnerPrefix + book.OwnerID + ":" + bookID))
	})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "book deleted",
		slog.String("id", bookID),
		slog.Int("documents_removed", docsRemoved),
	)
	s.emit(remote.OpDelete, remote.CollectionBooks, book.OwnerID)
	if docsRemoved > 0 {
		s.emit(remote.OpDelete, remote.CollectionDocuments, book.OwnerID)
	}
	return nil
}

// ListBooks returns all of an owner's books ordered by updated_at descending.
func (s *Store) ListBooks(ctx context.Context, ownerID string) ([]domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var books []domain.Book
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := idsByIndex(txn, bookByOwnerPrefix+ownerID+":")
		if err != nil {
			return err
		}
		books = make([]domain.Book, 0, len(ids))
		for _, bookID := range ids {
			item, err := txn.Get([]byte(bookPrefix + bookID))
			if err != nil {
				return err
			}
			var book domain.Book
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			}); err != nil {
				return err
			}
			books = append(books, book)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	slices.SortStableFunc(books, func(a, b domain.Book) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return books, nil
}
