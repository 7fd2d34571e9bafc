// Package store implements the remote document store on Badger: owner-scoped
// collections of books and documents ordered by updated_at descending, user
// accounts for the identity provider, and change emission on every
// successful write.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/quillapp/quill/internal/remote"
)

// Key prefixes. Secondary indexes map an index key to the entity ID.
const (
	bookPrefix        = "book:"
	bookByOwnerPrefix = "book:idx:owner:"

	docPrefix        = "doc:"
	docByOwnerPrefix = "doc:idx:owner:"
	docByBookPrefix  = "doc:idx:book:"

	userPrefix        = "user:"
	userByEmailPrefix = "user:idx:email:"
)

// ChangeEmitter receives a change event after every successful write.
// The feed hub implements this; stores created for tests use NoopEmitter.
type ChangeEmitter interface {
	Publish(change remote.Change)
}

// NoopEmitter is a no-op implementation of ChangeEmitter for testing.
type NoopEmitter struct{}

// Publish implements ChangeEmitter.Publish as a no-op.
func (NoopEmitter) Publish(remote.Change) {}

// Store wraps a Badger database instance.
type Store struct {
	db      *badger.DB
	logger  *slog.Logger
	emitter ChangeEmitter
}

// New opens a store at the given database path.
// The emitter broadcasts store changes to the change feed; pass NoopEmitter
// when no feed exists.
func New(path string, logger *slog.Logger, emitter ChangeEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger, emitter)
}

// NewInMemory opens an ephemeral store. Used by tests and single-shot tools.
func NewInMemory(logger *slog.Logger, emitter ChangeEmitter) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts, logger, emitter)
}

func open(opts badger.Options, logger *slog.Logger, emitter ChangeEmitter) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:      db,
		logger:  logger,
		emitter: emitter,
	}

	if !opts.InMemory {
		logger.Info("database opened", "path", opts.Dir)
	}
	return s, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing database")
	return s.db.Close()
}

// emit publishes a change event for a completed write.
func (s *Store) emit(op remote.Op, collection, ownerID string) {
	s.emitter.Publish(remote.Change{
		Op:         op,
		Collection: collection,
		OwnerID:    ownerID,
	})
}

// exists reports whether a key is present.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// idsByIndex collects entity IDs stored under an index key prefix.
func idsByIndex(txn *badger.Txn, prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.Valid(); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
