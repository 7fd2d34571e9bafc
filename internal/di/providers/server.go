package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill/internal/api"
	"github.com/quillapp/quill/internal/config"
	"github.com/quillapp/quill/internal/identity"
	"github.com/quillapp/quill/internal/sse"
	"github.com/quillapp/quill/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSSEHandler provides the change-feed stream handler.
func ProvideSSEHandler(i do.Injector) (*sse.Handler, error) {
	feedHandle := do.MustInvoke[*FeedHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return sse.NewHandler(feedHandle.Hub, log), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	provider := do.MustInvoke[*identity.Provider](i)
	validator := do.MustInvoke[*validation.Validator](i)
	stream := do.MustInvoke[*sse.Handler](i)
	log := do.MustInvoke[*slog.Logger](i)

	handler := api.NewServer(storeHandle.Store, provider, validator, stream, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
