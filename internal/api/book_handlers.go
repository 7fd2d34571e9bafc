package api

import (
	"encoding/json/v2"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/http/response"
	"github.com/quillapp/quill/internal/store"
)

// handleListBooks returns the authenticated user's books, newest first.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	books, err := s.store.ListBooks(r.Context(), userID)
	if err != nil {
		s.logger.Error("Failed to list books", "error", err, "user_id", userID)
		response.InternalError(w, "Failed to retrieve books", s.logger)
		return
	}

	response.Success(w, books, s.logger)
}

// handleCreateBook creates a book owned by the authenticated user.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var draft domain.BookDraft
	if err := json.UnmarshalRead(r.Body, &draft); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(draft); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	book, err := s.store.CreateBook(r.Context(), userID, draft)
	if err != nil {
		s.logger.Error("Failed to create book", "error", err, "user_id", userID)
		response.InternalError(w, "Failed to create book", s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleGetBook returns a single book if the authenticated user owns it.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := s.ownedBook(w, r)
	if !ok {
		return
	}

	response.Success(w, book, s.logger)
}

// handleUpdateBook applies a partial update to an owned book.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	book, ok := s.ownedBook(w, r)
	if !ok {
		return
	}

	var patch domain.BookPatch
	if err := json.UnmarshalRead(r.Body, &patch); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if patch.Title != nil {
		titled := domain.BookDraft{Title: *patch.Title}
		if err := s.validator.StructPartial(titled, "Title"); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
	}

	updated, err := s.store.UpdateBook(r.Context(), book.ID, patch)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			response.NotFound(w, "Book not found", s.logger)
			return
		}
		s.logger.Error("Failed to update book", "error", err, "id", book.ID)
		response.InternalError(w, "Failed to update book", s.logger)
		return
	}

	response.Success(w, updated, s.logger)
}

// handleDeleteBook deletes an owned book and all documents in it.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	book, ok := s.ownedBook(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteBook(r.Context(), book.ID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			response.NotFound(w, "Book not found", s.logger)
			return
		}
		s.logger.Error("Failed to delete book", "error", err, "id", book.ID)
		response.InternalError(w, "Failed to delete book", s.logger)
		return
	}

	response.NoContent(w)
}

// ownedBook loads the book named in the URL and checks ownership. A book
// owned by someone else reads as not found so IDs don't leak across accounts.
func (s *Server) ownedBook(w http.ResponseWriter, r *http.Request) (*domain.Book, bool) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return nil, false
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return nil, false
	}

	book, err := s.store.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			response.NotFound(w, "Book not found", s.logger)
			return nil, false
		}
		s.logger.Error("Failed to get book", "error", err, "id", id)
		response.InternalError(w, "Failed to retrieve book", s.logger)
		return nil, false
	}

	if book.OwnerID != userID {
		response.NotFound(w, "Book not found", s.logger)
		return nil, false
	}

	return book, true
}
