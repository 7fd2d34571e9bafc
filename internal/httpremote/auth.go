package httpremote

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quillapp/quill/internal/domain"
)

// Session is the result of a sign-up or sign-in against a host. Pass the
// access token to New to open an authenticated Remote.
type Session struct {
	User        domain.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// SignUp registers an account on the host and returns its session.
func SignUp(ctx context.Context, baseURL, email, displayName, password string, logger *slog.Logger) (*Session, error) {
	r := New(baseURL, "", logger)

	var session Session
	err := r.do(ctx, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email":        email,
		"display_name": displayName,
		"password":     password,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignIn authenticates against the host and returns a session.
func SignIn(ctx context.Context, baseURL, email, password string, logger *slog.Logger) (*Session, error) {
	r := New(baseURL, "", logger)

	var session Session
	err := r.do(ctx, http.MethodPost, "/api/v1/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
