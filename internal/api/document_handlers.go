package api

import (
	"encoding/json/v2"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/http/response"
	"github.com/quillapp/quill/internal/remote"
	"github.com/quillapp/quill/internal/store"
	"github.com/quillapp/quill/internal/words"
)

// handleListDocuments returns the authenticated user's documents, newest
// first, optionally narrowed to one book via ?book_id=.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	docs, err := s.store.ListDocuments(r.Context(), remote.Filter{
		OwnerID: userID,
		BookID:  r.URL.Query().Get("book_id"),
	})
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "user_id", userID)
		response.InternalError(w, "Failed to retrieve documents", s.logger)
		return
	}

	response.Success(w, docs, s.logger)
}

// handleCreateDocument creates a document in one of the user's books.
// Word count is recomputed here so clients can't store a stale figure.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var draft domain.DocumentDraft
	if err := json.UnmarshalRead(r.Body, &draft); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(draft); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	draft.WordCount = words.Count(draft.Content)

	doc, err := s.store.CreateDocument(r.Context(), userID, draft)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBookNotFound), errors.Is(err, store.ErrForeignBook):
			response.NotFound(w, "Book not found", s.logger)
		default:
			s.logger.Error("Failed to create document", "error", err, "user_id", userID)
			response.InternalError(w, "Failed to create document", s.logger)
		}
		return
	}

	response.Created(w, doc, s.logger)
}

// handleGetDocument returns a single document if the user owns it.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}

	response.Success(w, doc, s.logger)
}

// handleUpdateDocument applies a partial update to an owned document.
// A patch that touches content gets its word count recomputed.
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}

	var patch domain.DocumentPatch
	if err := json.UnmarshalRead(r.Body, &patch); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if patch.Title != nil {
		titled := domain.DocumentDraft{Title: *patch.Title}
		if err := s.validator.StructPartial(titled, "Title"); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
	}

	if patch.Content != nil {
		count := words.Count(*patch.Content)
		patch.WordCount = &count
	}

	updated, err := s.store.UpdateDocument(r.Context(), doc.ID, patch)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			response.NotFound(w, "Document not found", s.logger)
			return
		}
		s.logger.Error("Failed to update document", "error", err, "id", doc.ID)
		response.InternalError(w, "Failed to update document", s.logger)
		return
	}

	response.Success(w, updated, s.logger)
}

// handleDeleteDocument deletes an owned document.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteDocument(r.Context(), doc.ID); err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			response.NotFound(w, "Document not found", s.logger)
			return
		}
		s.logger.Error("Failed to delete document", "error", err, "id", doc.ID)
		response.InternalError(w, "Failed to delete document", s.logger)
		return
	}

	response.NoContent(w)
}

// ownedDocument loads the document named in the URL and checks ownership.
// Foreign documents read as not found.
func (s *Server) ownedDocument(w http.ResponseWriter, r *http.Request) (*domain.Document, bool) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return nil, false
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Document ID is required", s.logger)
		return nil, false
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			response.NotFound(w, "Document not found", s.logger)
			return nil, false
		}
		s.logger.Error("Failed to get document", "error", err, "id", id)
		response.InternalError(w, "Failed to retrieve document", s.logger)
		return nil, false
	}

	if doc.OwnerID != userID {
		response.NotFound(w, "Document not found", s.logger)
		return nil, false
	}

	return doc, true
}
