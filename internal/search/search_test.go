package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/domain"
)

func makeBook(id, title, description string) domain.Book {
	b := domain.Book{Title: title, Description: description}
	b.ID = id
	return b
}

func makeDoc(id, title, content string) domain.Document {
	d := domain.Document{Title: title, Content: content}
	d.ID = id
	return d
}

func TestQuery_DocumentContentMatch(t *testing.T) {
	books := []domain.Book{makeBook("book-1", "Notes", "")}
	docs := []domain.Document{makeDoc("doc-1", "Draft", "hello world")}

	result := Query("world", books, docs)

	assert.Empty(t, result.Books)
	require.Len(t, result.Documents, 1)

	hit := result.Documents[0]
	assert.Equal(t, "doc-1", hit.Document.ID)
	assert.Empty(t, hit.TitleSpans)
	assert.Contains(t, hit.Snippet, "world")
	require.Len(t, hit.SnippetSpans, 1)
	span := hit.SnippetSpans[0]
	assert.Equal(t, "world", hit.Snippet[span.Start:span.End])
}

func TestQuery_CaseInsensitive(t *testing.T) {
	books := []domain.Book{makeBook("book-1", "Meeting Notes", "weekly SYNC")}

	result := Query("sync", books, nil)
	require.Len(t, result.Books, 1)
	require.Len(t, result.Books[0].DescriptionSpans, 1)

	span := result.Books[0].DescriptionSpans[0]
	assert.Equal(t, "SYNC", "weekly SYNC"[span.Start:span.End])
}

func TestQuery_TagStrippedContent(t *testing.T) {
	docs := []domain.Document{makeDoc("doc-1", "Draft", "<p>hello <strong>world</strong></p>")}

	result := Query("strong", nil, docs)
	assert.Empty(t, result.Documents, "markup never matches")

	result = Query("world", nil, docs)
	require.Len(t, result.Documents, 1)
	assert.NotContains(t, result.Documents[0].Snippet, "<")
}

func TestQuery_TitleOnlyMatch_LeadingSnippet(t *testing.T) {
	docs := []domain.Document{makeDoc("doc-1", "Shopping", strings.Repeat("milk eggs bread ", 20))}

	result := Query("shopping", nil, docs)
	require.Len(t, result.Documents, 1)

	hit := result.Documents[0]
	require.Len(t, hit.TitleSpans, 1)
	assert.True(t, strings.HasPrefix(hit.Snippet, "milk"), "leading snippet when only the title matches")
	assert.True(t, strings.HasSuffix(hit.Snippet, "..."))
	assert.Empty(t, hit.SnippetSpans)
}

func TestQuery_SnippetWindow(t *testing.T) {
	prefix := strings.Repeat("a", 200)
	docs := []domain.Document{makeDoc("doc-1", "Draft", prefix+" needle "+strings.Repeat("b", 200))}

	result := Query("needle", nil, docs)
	require.Len(t, result.Documents, 1)

	hit := result.Documents[0]
	assert.True(t, strings.HasPrefix(hit.Snippet, "..."), "window starts mid-content")
	assert.True(t, strings.HasSuffix(hit.Snippet, "..."))
	assert.Contains(t, hit.Snippet, "needle")
	assert.LessOrEqual(t, len(hit.Snippet), 150+6, "bounded plus ellipses")

	require.Len(t, hit.SnippetSpans, 1)
	span := hit.SnippetSpans[0]
	assert.Equal(t, "needle", hit.Snippet[span.Start:span.End])
}

func TestQuery_EmptyAndBlank(t *testing.T) {
	books := []domain.Book{makeBook("book-1", "Notes", "")}
	docs := []domain.Document{makeDoc("doc-1", "Draft", "hello")}

	assert.True(t, Query("", books, docs).Empty())
	assert.True(t, Query("   ", books, docs).Empty())
}

func TestQuery_MultipleOccurrences(t *testing.T) {
	books := []domain.Book{makeBook("book-1", "go go go", "")}

	result := Query("go", books, nil)
	require.Len(t, result.Books, 1)
	assert.Len(t, result.Books[0].TitleSpans, 3)
}

func TestQuery_PreservesSnapshotOrder(t *testing.T) {
	docs := []domain.Document{
		makeDoc("doc-1", "alpha", ""),
		makeDoc("doc-2", "alphabet", ""),
	}

	result := Query("alpha", nil, docs)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, "doc-1", result.Documents[0].Document.ID)
	assert.Equal(t, "doc-2", result.Documents[1].Document.ID)
}
