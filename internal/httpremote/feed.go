package httpremote

import (
	"bufio"
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quillapp/quill/internal/remote"
)

// feedBuffer is the channel depth between the stream reader and consumers.
const feedBuffer = 64

// reconnectDelay is the pause before re-dialing a dropped stream.
const reconnectDelay = 2 * time.Second

// streamFeed reads the host's SSE stream and surfaces change events.
// Dropped connections are re-dialed until the subscription is cancelled;
// consumers re-fetch on every event, so missed events during an outage are
// healed by the first event after reconnect.
type streamFeed struct {
	remote *Remote
}

// Subscribe opens the stream. The server scopes events to the token's owner,
// so ownerID is only used for logging.
func (f *streamFeed) Subscribe(ctx context.Context, ownerID string) (<-chan remote.Change, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan remote.Change, feedBuffer)

	logger := f.remote.logger.With(slog.String("owner_id", ownerID))

	go func() {
		defer close(events)
		for {
			if err := f.readStream(ctx, events); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("change stream dropped, reconnecting",
					slog.String("error", err.Error()))
			}

			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, cancel, nil
}

// readStream dials the stream endpoint and forwards change events until the
// connection drops or the context ends.
func (f *streamFeed) readStream(ctx context.Context, events chan<- remote.Change) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.remote.baseURL+"/api/v1/sync/stream", nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if f.remote.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.remote.token)
	}

	// Streams have no response deadline; the request context bounds them.
	client := &http.Client{Transport: f.remote.httpClient.Transport}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)

	var eventType, data string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if eventType == "change" && data != "" {
				var payload struct {
					Data remote.Change `json:"data"`
				}
				if err := json.Unmarshal([]byte(data), &payload); err != nil {
					f.remote.logger.Warn("malformed change event", slog.String("error", err.Error()))
				} else {
					select {
					case events <- payload.Data:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			eventType, data = "", ""
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}
