// Package identity supplies the current-owner provider: sign-up, sign-in,
// sign-out, and token verification over the user store.
//
// Sign-in attempts are rate limited per email to slow credential stuffing.
package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quillapp/quill/internal/auth"
	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/errors"
	"github.com/quillapp/quill/internal/ratelimit"
	"github.com/quillapp/quill/internal/store"
)

// Session is a signed-in identity: the owner all caches and syncers scope to.
type Session struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Provider authenticates users and mints access tokens.
type Provider struct {
	store   *store.Store
	tokens  *auth.TokenService
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates a Provider. The limiter keys sign-in attempts by email.
func New(s *store.Store, tokens *auth.TokenService, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		store:   s,
		tokens:  tokens,
		limiter: limiter,
		logger:  logger,
	}
}

// SignUp registers a new user and returns a signed-in session.
func (p *Provider) SignUp(ctx context.Context, email, displayName, password string) (*Session, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errors.Validation("invalid password").WithCause(err)
	}

	user, err := p.store.CreateUser(ctx, email, displayName, hash)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, errors.AlreadyExists("email already registered")
		}
		return nil, errors.Internal("creating user").WithCause(err)
	}

	p.logger.Info("user registered", "user_id", user.ID)
	return p.newSession(user)
}

// SignIn verifies credentials and returns a session. Unknown emails and wrong
// passwords produce the same error, so callers can't probe for accounts.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if p.limiter != nil && !p.limiter.Allow(key) {
		return nil, errors.RateLimited("too many sign-in attempts")
	}

	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, errors.InvalidCredentials("invalid email or password")
		}
		return nil, errors.Internal("loading user").WithCause(err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, errors.Internal("verifying password").WithCause(err)
	}
	if !ok {
		p.logger.Warn("failed sign-in attempt", "user_id", user.ID)
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	return p.newSession(user)
}

// Verify checks an access token and returns the owner it identifies.
func (p *Provider) Verify(ctx context.Context, token string) (*domain.User, error) {
	claims, err := p.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, errors.Unauthorized("invalid or expired token")
	}

	user, err := p.store.GetUser(ctx, claims.UserID)
	if err != nil {
		// The token outlived the account.
		return nil, errors.Unauthorized("unknown user")
	}
	return user, nil
}

// SignOut ends a session. Tokens are stateless, so this only logs; expiry is
// the revocation mechanism.
func (p *Provider) SignOut(_ context.Context, userID string) {
	p.logger.Info("user signed out", "user_id", userID)
}

func (p *Provider) newSession(user *domain.User) (*Session, error) {
	token, err := p.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal("minting access token").WithCause(err)
	}
	return &Session{User: user, AccessToken: token}, nil
}
