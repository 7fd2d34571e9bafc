package providers

import (
	"log/slog"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill/internal/config"
	"github.com/quillapp/quill/internal/feed"
	"github.com/quillapp/quill/internal/store"
)

// FeedHandle wraps the change-feed hub with shutdown capability.
type FeedHandle struct {
	*feed.Hub
}

// Shutdown implements do.Shutdownable.
func (h *FeedHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideFeedHub provides the change-feed hub.
func ProvideFeedHub(i do.Injector) (*FeedHandle, error) {
	log := do.MustInvoke[*slog.Logger](i)
	return &FeedHandle{Hub: feed.NewHub(log)}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store, wired to publish every write
// onto the change feed.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	feedHandle := do.MustInvoke[*FeedHandle](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "db")
	db, err := store.New(dbPath, log, feedHandle.Hub)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
