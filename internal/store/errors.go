package store

import "errors"

// Sentinel errors returned by store operations.
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrBookExists       = errors.New("book already exists")
	ErrDocumentNotFound = errors.New("document not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")

	// ErrForeignBook is returned when a document references a book owned by
	// a different user. Referential integrity is the store's job, not the
	// client engine's.
	ErrForeignBook = errors.New("book belongs to a different owner")
)
