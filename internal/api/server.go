// Package api provides the HTTP API server and handlers for the Quill sync host.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quillapp/quill/internal/http/response"
	"github.com/quillapp/quill/internal/identity"
	"github.com/quillapp/quill/internal/sse"
	"github.com/quillapp/quill/internal/store"
	"github.com/quillapp/quill/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *store.Store
	identity  *identity.Provider
	validator *validation.Validator
	stream    *sse.Handler
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, identity *identity.Provider, validator *validation.Validator, stream *sse.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:     store,
		identity:  identity,
		validator: validator,
		stream:    stream,
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.With(s.requireAuth).Post("/signout", s.handleSignOut)
		})

		// Protected user endpoints.
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleGetCurrentUser)
		})

		// Books (require auth, owner scoped).
		r.Route("/books", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleCreateBook)
			r.Get("/{id}", s.handleGetBook)
			r.Patch("/{id}", s.handleUpdateBook)
			r.Delete("/{id}", s.handleDeleteBook)
		})

		// Documents (require auth, owner scoped, optional ?book_id= filter).
		r.Route("/documents", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Get("/{id}", s.handleGetDocument)
			r.Patch("/{id}", s.handleUpdateDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})

		// Change-feed stream.
		r.Route("/sync", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/stream", s.handleStream)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

// handleStream hands the connection to the SSE handler, scoped to the
// authenticated owner.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	s.stream.Stream(w, r, userID)
}
