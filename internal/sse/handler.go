package sse

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quillapp/quill/internal/feed"
)

// heartbeatInterval is how often keepalive events are sent on idle streams.
const heartbeatInterval = 30 * time.Second

// Handler serves the change-feed stream at GET /api/v1/sync/stream.
type Handler struct {
	hub    *feed.Hub
	logger *slog.Logger
}

// NewHandler creates a new SSE Handler over the change-feed hub.
func NewHandler(hub *feed.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// Stream subscribes the client to ownerID's change feed and streams events
// until the client disconnects or the hub shuts down. The caller is
// responsible for authenticating ownerID before handing off the request.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, ownerID string) {
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)

	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	changes, cancel, err := h.hub.Subscribe(ctx, ownerID)
	if err != nil {
		h.logger.Error("failed to subscribe to change feed", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer cancel()

	streamLogger := h.logger.With(slog.String("owner_id", ownerID))

	if err := h.sendEvent(w, rc, NewConnectedEvent(ownerID)); err != nil {
		streamLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	heartbeatTicker := time.NewTicker(heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				// Hub shut down.
				streamLogger.Info("change feed closed")
				return
			}
			if err := h.sendEvent(w, rc, NewChangeEvent(change)); err != nil {
				// Client disconnect is normal, not an error condition.
				streamLogger.Info("client disconnected during send")
				return
			}

		case <-heartbeatTicker.C:
			if err := h.sendEvent(w, rc, NewHeartbeatEvent()); err != nil {
				streamLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-ctx.Done():
			streamLogger.Info("client context canceled")
			return
		}
	}
}

// sendEvent writes one SSE event to the response writer.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset the write deadline after each successful write so idle streams
	// survive while hung connections eventually get reaped.
	if err := rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}
