package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/domain"
)

// createBook creates a book through the API and returns it.
func createBook(t *testing.T, ts *testServer, token, title string) domain.Book {
	t.Helper()

	resp := ts.post("/api/v1/books/", token, map[string]any{
		"title":       title,
		"description": "a test book",
		"color_theme": "blue",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	return decodeEnvelope[domain.Book](t, resp).Data
}

func TestCreateBook(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signUp(t, "writer@example.com")

	book := createBook(t, ts, token, "Field Notes")
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "Field Notes", book.Title)
	assert.Equal(t, domain.ThemeBlue, book.ColorTheme)
	assert.NotEmpty(t, book.OwnerID)
}

func TestCreateBook_BlankTitle(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signUp(t, "writer@example.com")

	resp := ts.post("/api/v1/books/", token, map[string]any{"title": "   "})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	envelope := decodeEnvelope[any](t, resp)
	assert.Contains(t, envelope.Details, "title")
}

func TestListBooks_OwnerScoped(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.signUp(t, "alice@example.com")
	bob := ts.signUp(t, "bob@example.com")

	createBook(t, ts, alice, "Alice's Book")
	createBook(t, ts, bob, "Bob's Book")

	resp := ts.get("/api/v1/books/", alice)
	require.Equal(t, http.StatusOK, resp.Code)

	books := decodeEnvelope[[]domain.Book](t, resp).Data
	require.Len(t, books, 1)
	assert.Equal(t, "Alice's Book", books[0].Title)
}

func TestGetBook_ForeignBookHidden(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.signUp(t, "alice@example.com")
	bob := ts.signUp(t, "bob@example.com")

	book := createBook(t, ts, alice, "Alice's Book")

	resp := ts.get("/api/v1/books/"+book.ID, bob)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateBook(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signUp(t, "writer@example.com")
	book := createBook(t, ts, token, "Field Notes")

	resp := ts.patch("/api/v1/books/"+book.ID, token, map[string]any{
		"title":       "Lab Notes",
		"color_theme": "green",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	updated := decodeEnvelope[domain.Book](t, resp).Data
	assert.Equal(t, "Lab Notes", updated.Title)
	assert.Equal(t, domain.ThemeGreen, updated.ColorTheme)
	assert.Equal(t, "a test book", updated.Description)
}

func TestUpdateBook_BlankTitleRejected(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signUp(t, "writer@example.com")
	book := createBook(t, ts, token, "Field Notes")

	resp := ts.patch("/api/v1/books/"+book.ID, token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteBook_CascadesDocuments(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signUp(t, "writer@example.com")
	book := createBook(t, ts, token, "Field Notes")
	createDocument(t, ts, token, book.ID, "Entry", "<p>hello world</p>")

	resp := ts.delete("/api/v1/books/"+book.ID, token)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.get("/api/v1/documents/", token)
	require.Equal(t, http.StatusOK, resp.Code)
	docs := decodeEnvelope[[]domain.Document](t, resp).Data
	assert.Empty(t, docs)
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.signUp(t, "writer@example.com")

	resp := ts.get("/api/v1/books/book_missing", token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
