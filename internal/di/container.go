// Package di provides dependency injection configuration for the Quill server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill/internal/auth"
	"github.com/quillapp/quill/internal/config"
	"github.com/quillapp/quill/internal/di/providers"
	"github.com/quillapp/quill/internal/identity"
	"github.com/quillapp/quill/internal/sse"
	"github.com/quillapp/quill/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Feed and storage
	do.Provide(injector, providers.ProvideFeedHub)
	do.Provide(injector, providers.ProvideStore)

	// Auth and identity
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideSignInLimiter)
	do.Provide(injector, providers.ProvideIdentity)

	// Server
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideSSEHandler)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*slog.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.FeedHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*identity.Provider](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*sse.Handler](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
