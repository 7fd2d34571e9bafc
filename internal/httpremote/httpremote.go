// Package httpremote implements the remote contract over HTTP: CRUD against
// the JSON API plus a change feed read from the SSE stream. It is the
// network twin of localremote; the sync engine cannot tell them apart.
package httpremote

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/errors"
	"github.com/quillapp/quill/internal/remote"
)

// envelope mirrors the server's response wrapper.
type envelope[T any] struct {
	Data    T                 `json:"data"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
	Success bool              `json:"success"`
}

// Remote is an HTTP client for a Quill sync host. The access token scopes
// every request to one owner; the server ignores client-supplied owner IDs.
type Remote struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Remote.
type Option func(*Remote)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Remote) {
		r.httpClient = c
	}
}

// New creates a Remote for the host at baseURL, authenticated with the
// given access token. The token comes from a sign-in against the same host.
func New(baseURL, token string, logger *slog.Logger, opts ...Option) *Remote {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Books returns the books collection.
func (r *Remote) Books() remote.Collection[domain.Book, domain.BookDraft, domain.BookPatch] {
	return collection[domain.Book, domain.BookDraft, domain.BookPatch]{remote: r, path: "/api/v1/books"}
}

// Documents returns the documents collection.
func (r *Remote) Documents() remote.Collection[domain.Document, domain.DocumentDraft, domain.DocumentPatch] {
	return collection[domain.Document, domain.DocumentDraft, domain.DocumentPatch]{remote: r, path: "/api/v1/documents"}
}

// Feed returns the change feed, read from the host's SSE stream.
func (r *Remote) Feed() remote.Feed {
	return &streamFeed{remote: r}
}

// collection adapts one API resource to the remote collection contract.
type collection[T, D, P any] struct {
	remote *Remote
	path   string
}

func (c collection[T, D, P]) List(ctx context.Context, f remote.Filter) ([]T, error) {
	path := c.path + "/"
	if f.BookID != "" {
		path += "?" + url.Values{"book_id": {f.BookID}}.Encode()
	}

	var out []T
	if err := c.remote.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c collection[T, D, P]) Insert(ctx context.Context, _ string, draft D) (T, error) {
	var out T
	err := c.remote.do(ctx, http.MethodPost, c.path+"/", draft, &out)
	return out, err
}

func (c collection[T, D, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var out T
	err := c.remote.do(ctx, http.MethodPatch, c.path+"/"+id, patch, &out)
	return out, err
}

func (c collection[T, D, P]) Delete(ctx context.Context, id string) error {
	return c.remote.do(ctx, http.MethodDelete, c.path+"/"+id, nil, nil)
}

// do performs one API request and decodes the envelope into out.
func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope[jsontext.Value]
	if err := json.UnmarshalRead(resp.Body, &env); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, env.Error, env.Details)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// apiError maps an error response onto the domain error taxonomy.
func apiError(status int, message string, details map[string]string) error {
	if message == "" {
		message = http.StatusText(status)
	}

	switch status {
	case http.StatusBadRequest:
		if len(details) > 0 {
			return errors.ValidationWithDetails(message, details)
		}
		return errors.Validation(message)
	case http.StatusUnauthorized:
		return errors.Unauthorized(message)
	case http.StatusForbidden:
		return errors.Forbidden(message)
	case http.StatusNotFound:
		return errors.NotFound(message)
	case http.StatusConflict:
		return errors.AlreadyExists(message)
	case http.StatusTooManyRequests:
		return errors.RateLimited(message)
	default:
		return errors.Internal(message)
	}
}
