package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/remote"
)

// fakeCollection is an in-memory documents collection with injectable
// failures and call counting.
type fakeCollection struct {
	mu       sync.Mutex
	docs     map[string]domain.Document
	nextID   int
	listErr  error
	writeErr error
	lists    int
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]domain.Document)}
}

func (f *fakeCollection) List(_ context.Context, filter remote.Filter) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Document
	for _, d := range f.docs {
		if d.OwnerID != filter.OwnerID {
			continue
		}
		if filter.BookID != "" && d.BookID != filter.BookID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeCollection) Insert(_ context.Context, ownerID string, draft domain.DocumentDraft) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return domain.Document{}, f.writeErr
	}
	f.nextID++
	doc := domain.Document{
		Title:     draft.Title,
		Content:   draft.Content,
		BookID:    draft.BookID,
		OwnerID:   ownerID,
		WordCount: draft.WordCount,
	}
	doc.ID = fmt.Sprintf("doc-%d", f.nextID)
	doc.InitTimestamps()
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeCollection) Update(_ context.Context, id string, patch domain.DocumentPatch) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return domain.Document{}, f.writeErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s not found", id)
	}
	patch.Apply(&doc)
	doc.Touch()
	f.docs[id] = doc
	return doc, nil
}

func (f *fakeCollection) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeCollection) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeCollection) seed(id, ownerID, bookID, title string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := domain.Document{Title: title, BookID: bookID, OwnerID: ownerID}
	doc.ID = id
	doc.CreatedAt = at
	doc.UpdatedAt = at
	f.docs[id] = doc
}

// fakeFeed hands every subscriber the same unbuffered channel so tests can
// push events synchronously.
type fakeFeed struct {
	events chan remote.Change
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{events: make(chan remote.Change)}
}

func (f *fakeFeed) Subscribe(_ context.Context, _ string) (<-chan remote.Change, func(), error) {
	return f.events, func() {}, nil
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, time.Second, 2*time.Millisecond)
}

func newTestSyncer(coll *fakeCollection, feed remote.Feed) *DocumentSyncer {
	return NewDocumentSyncer(coll, feed, "user-1", "", nil)
}

func TestSyncerStart_LoadsSnapshot(t *testing.T) {
	coll := newFakeCollection()
	now := time.Now()
	coll.seed("doc-old", "user-1", "book-1", "Old", now.Add(-time.Hour))
	coll.seed("doc-new", "user-1", "book-1", "New", now)
	coll.seed("doc-foreign", "user-2", "book-9", "Foreign", now)

	s := newTestSyncer(coll, newFakeFeed())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	docs := s.Cache().List()
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-new", docs[0].ID, "newest first")
	assert.Equal(t, "doc-old", docs[1].ID)
}

func TestSyncerStart_FetchFailure(t *testing.T) {
	coll := newFakeCollection()
	coll.listErr = fmt.Errorf("connection refused")

	s := newTestSyncer(coll, newFakeFeed())
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, s.Cache().Len())

	// Recoverable: clearing the fault lets a second Start succeed.
	coll.mu.Lock()
	coll.listErr = nil
	coll.mu.Unlock()
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestSyncerFeedEvent_TriggersRefetch(t *testing.T) {
	coll := newFakeCollection()
	feed := newFakeFeed()

	s := newTestSyncer(coll, feed)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	coll.seed("doc-1", "user-1", "book-1", "Arrived", time.Now())
	feed.events <- remote.Change{Op: remote.OpInsert, Collection: remote.CollectionDocuments, OwnerID: "user-1"}

	waitFor(t, func() bool { return s.Cache().Len() == 1 })
}

func TestSyncerFeedEvent_OtherCollectionIgnored(t *testing.T) {
	coll := newFakeCollection()
	feed := newFakeFeed()

	s := newTestSyncer(coll, feed)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	initial := coll.listCount()
	feed.events <- remote.Change{Op: remote.OpUpdate, Collection: remote.CollectionBooks, OwnerID: "user-1"}
	// Push a matching event behind it; once that lands we know the books
	// event has been fully processed.
	coll.seed("doc-1", "user-1", "book-1", "A", time.Now())
	feed.events <- remote.Change{Op: remote.OpInsert, Collection: remote.CollectionDocuments, OwnerID: "user-1"}

	waitFor(t, func() bool { return s.Cache().Len() == 1 })
	assert.Equal(t, initial+1, coll.listCount(), "only the documents event refetches")
}

func TestSyncerFeedEvent_RefetchFailureKeepsSnapshot(t *testing.T) {
	coll := newFakeCollection()
	coll.seed("doc-1", "user-1", "book-1", "Kept", time.Now())
	feed := newFakeFeed()

	s := newTestSyncer(coll, feed)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	coll.mu.Lock()
	coll.listErr = fmt.Errorf("transient")
	coll.mu.Unlock()
	feed.events <- remote.Change{Op: remote.OpDelete, Collection: remote.CollectionDocuments, OwnerID: "user-1"}

	// The failed refetch leaves the stale snapshot; the next event recovers.
	coll.mu.Lock()
	coll.listErr = nil
	delete(coll.docs, "doc-1")
	coll.mu.Unlock()
	assert.Equal(t, 1, s.Cache().Len())

	feed.events <- remote.Change{Op: remote.OpDelete, Collection: remote.CollectionDocuments, OwnerID: "user-1"}
	waitFor(t, func() bool { return s.Cache().Len() == 0 })
}

func TestSyncerCreate_OptimisticAndCounted(t *testing.T) {
	coll := newFakeCollection()
	s := newTestSyncer(coll, newFakeFeed())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	doc, err := s.Create(context.Background(), domain.DocumentDraft{
		Title:   "Draft",
		Content: "<p>hello world</p>",
		BookID:  "book-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.WordCount, "word count attached before the write")

	got, ok := s.Cache().Find(doc.ID)
	require.True(t, ok, "visible in the cache before any feed echo")
	assert.Equal(t, "Draft", got.Title)
}

func TestSyncerUpdate_RecountsOnlyWithContent(t *testing.T) {
	coll := newFakeCollection()
	s := newTestSyncer(coll, newFakeFeed())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	doc, err := s.Create(context.Background(), domain.DocumentDraft{
		Title: "Draft", Content: "one two", BookID: "book-1",
	})
	require.NoError(t, err)

	fav := true
	updated, err := s.Update(context.Background(), doc.ID, domain.DocumentPatch{IsFavorite: &fav})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.WordCount, "content-free patch keeps the count")

	content := "one two three four"
	updated, err = s.Update(context.Background(), doc.ID, domain.DocumentPatch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.WordCount)
}

func TestSyncerWriteFailure_CacheUntouched(t *testing.T) {
	coll := newFakeCollection()
	s := newTestSyncer(coll, newFakeFeed())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	doc, err := s.Create(context.Background(), domain.DocumentDraft{
		Title: "Draft", BookID: "book-1",
	})
	require.NoError(t, err)

	diskFull := fmt.Errorf("disk full")
	coll.mu.Lock()
	coll.writeErr = diskFull
	coll.mu.Unlock()

	title := "Renamed"
	_, err = s.Update(context.Background(), doc.ID, domain.DocumentPatch{Title: &title})
	assert.ErrorIs(t, err, diskFull, "cause is preserved through wrapping")
	assert.ErrorIs(t, s.Delete(context.Background(), doc.ID), diskFull)

	got, ok := s.Cache().Find(doc.ID)
	require.True(t, ok)
	assert.Equal(t, "Draft", got.Title, "failed writes leave the snapshot alone")
}

func TestSyncerDelete_RemovesFromCache(t *testing.T) {
	coll := newFakeCollection()
	s := newTestSyncer(coll, newFakeFeed())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	doc, err := s.Create(context.Background(), domain.DocumentDraft{Title: "A", BookID: "book-1"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), doc.ID))
	assert.Equal(t, 0, s.Cache().Len())
}

func TestSyncerStop_Idempotent(t *testing.T) {
	s := newTestSyncer(newFakeCollection(), newFakeFeed())
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	s.Stop()

	assert.NotPanics(t, func() { s.Stop() })
}
