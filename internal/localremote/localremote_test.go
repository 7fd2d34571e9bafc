package localremote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/feed"
	"github.com/quillapp/quill/internal/remote"
	"github.com/quillapp/quill/internal/store"
	syncer "github.com/quillapp/quill/internal/sync"
)

func setupRemote(t *testing.T) *Remote {
	t.Helper()

	hub := feed.NewHub(nil)
	s, err := store.NewInMemory(nil, hub)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
		hub.Close()
	})

	return New(s, hub)
}

func TestWritesReachSubscribers(t *testing.T) {
	r := setupRemote(t)
	ctx := context.Background()

	events, cancel, err := r.Feed().Subscribe(ctx, "user-1")
	require.NoError(t, err)
	defer cancel()

	book, err := r.Books().Insert(ctx, "user-1", domain.BookDraft{Title: "Notes"})
	require.NoError(t, err)

	select {
	case change := <-events:
		assert.Equal(t, remote.OpInsert, change.Op)
		assert.Equal(t, remote.CollectionBooks, change.Collection)
	case <-time.After(time.Second):
		t.Fatal("no change event for book insert")
	}

	_, err = r.Documents().Insert(ctx, "user-1", domain.DocumentDraft{Title: "Draft", BookID: book.ID})
	require.NoError(t, err)

	select {
	case change := <-events:
		assert.Equal(t, remote.CollectionDocuments, change.Collection)
	case <-time.After(time.Second):
		t.Fatal("no change event for document insert")
	}
}

// Exercises the full round trip: a write through one syncer reconciles
// another owner-matching syncer's cache via the change feed.
func TestSyncersConvergeThroughFeed(t *testing.T) {
	r := setupRemote(t)
	ctx := context.Background()

	first := syncer.NewBookSyncer(r.Books(), r.Feed(), "user-1", nil)
	second := syncer.NewBookSyncer(r.Books(), r.Feed(), "user-1", nil)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, second.Start(ctx))
	defer first.Stop()
	defer second.Stop()

	book, err := first.Create(ctx, domain.BookDraft{Title: "Notes"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := second.Cache().Find(book.ID)
		return ok
	}, time.Second, 5*time.Millisecond, "second syncer converges via its reconciling fetch")

	require.NoError(t, first.Delete(ctx, book.ID))
	assert.Eventually(t, func() bool {
		return second.Cache().Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestForeignOwnerInvisible(t *testing.T) {
	r := setupRemote(t)
	ctx := context.Background()

	_, err := r.Books().Insert(ctx, "user-1", domain.BookDraft{Title: "Mine"})
	require.NoError(t, err)

	books, err := r.Books().List(ctx, remote.Filter{OwnerID: "user-2"})
	require.NoError(t, err)
	assert.Empty(t, books)
}
