package providers

import (
	"encoding/hex"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill/internal/auth"
	"github.com/quillapp/quill/internal/config"
	"github.com/quillapp/quill/internal/identity"
	"github.com/quillapp/quill/internal/ratelimit"
)

// Sign-in throttling: one attempt per second per email, bursts of five.
const (
	signInRate  = 1.0
	signInBurst = 5
)

// AuthKey wraps the access-token key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the access-token key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}

	log.Info("Access token key ready", "path", cfg.Storage.DataPath)
	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(hex.EncodeToString(key), cfg.Auth.AccessTokenDuration)
}

// RateLimiterHandle wraps the keyed limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideSignInLimiter provides the per-email sign-in rate limiter.
func ProvideSignInLimiter(i do.Injector) (*RateLimiterHandle, error) {
	return &RateLimiterHandle{KeyedRateLimiter: ratelimit.New(signInRate, signInBurst)}, nil
}

// ProvideIdentity provides the identity provider.
func ProvideIdentity(i do.Injector) (*identity.Provider, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return identity.New(storeHandle.Store, tokens, limiter.KeyedRateLimiter, log), nil
}
