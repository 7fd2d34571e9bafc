package sse

import (
	"bufio"
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/feed"
	"github.com/quillapp/quill/internal/remote"
)

// readEvent reads one "event:"/"data:" pair from the stream.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()

	var eventType, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestStreamDeliversChanges(t *testing.T) {
	hub := feed.NewHub(nil)
	defer hub.Close()

	handler := NewHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.Stream(w, r, "user-1")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	eventType, data := readEvent(t, reader)
	assert.Equal(t, string(EventConnected), eventType)
	assert.Contains(t, data, "user-1")

	// The subscription races the first read; give it a moment to register.
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(remote.Change{Op: remote.OpInsert, Collection: remote.CollectionBooks, OwnerID: "user-1"})

	eventType, data = readEvent(t, reader)
	assert.Equal(t, string(EventChange), eventType)

	var event struct {
		Data remote.Change `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, remote.OpInsert, event.Data.Op)
	assert.Equal(t, remote.CollectionBooks, event.Data.Collection)
}

func TestStreamFiltersByOwner(t *testing.T) {
	hub := feed.NewHub(nil)
	defer hub.Close()

	handler := NewHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.Stream(w, r, "user-1")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // connected

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	// A foreign owner's change must not reach this stream.
	hub.Publish(remote.Change{Op: remote.OpInsert, Collection: remote.CollectionBooks, OwnerID: "user-2"})
	hub.Publish(remote.Change{Op: remote.OpDelete, Collection: remote.CollectionDocuments, OwnerID: "user-1"})

	eventType, data := readEvent(t, reader)
	assert.Equal(t, string(EventChange), eventType)
	assert.Contains(t, data, string(remote.OpDelete))
}

func TestStreamEndsWhenHubCloses(t *testing.T) {
	hub := feed.NewHub(nil)

	handler := NewHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.Stream(w, r, "user-1")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // connected

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Close()

	_, err = reader.ReadString('\n')
	assert.Error(t, err)
}
