package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/http/response"
)

// signUpRequest is the payload for POST /auth/signup.
type signUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,notblank,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
}

// signInRequest is the payload for POST /auth/signin.
type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse is returned by both sign-up and sign-in.
type sessionResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// handleSignUp registers a new account and returns a fresh session.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	session, err := s.identity.SignUp(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, sessionResponse{
		User:        session.User,
		AccessToken: session.AccessToken,
	}, s.logger)
}

// handleSignIn authenticates an account and returns a fresh session.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	session, err := s.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, sessionResponse{
		User:        session.User,
		AccessToken: session.AccessToken,
	}, s.logger)
}

// handleSignOut ends the session. Tokens are stateless so this only logs;
// clients drop the token.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	s.identity.SignOut(r.Context(), userID)
	response.NoContent(w)
}

// handleGetCurrentUser returns the authenticated user's profile.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		response.NotFound(w, "User not found", s.logger)
		return
	}

	response.Success(w, user, s.logger)
}
