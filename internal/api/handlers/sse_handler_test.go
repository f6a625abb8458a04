package handlers_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalpowermonitor/internal/adapters/events"
	"github.com/zatekoja/hospitalpowermonitor/internal/api/handlers"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/entities"
	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
)

// readEvent returns the name and data of the next SSE frame
func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestSSEHandler_StreamSectorUpdates(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	handler := handlers.NewSSEHandler(bus, time.Hour)
	server := httptest.NewServer(http.HandlerFunc(handler.StreamSectorUpdates))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	name, _ := readEvent(t, reader)
	assert.Equal(t, "connected", name)
	assert.Equal(t, 1, handler.ClientCount())

	event := entities.NewSectorEvent(entities.SectorEventTypeOutageStarted, "s1", "o1", time.Now())
	require.NoError(t, bus.Publish(ctx, providers.EventChannelSectorUpdates, event))

	name, data := readEvent(t, reader)
	assert.Equal(t, "outage_started", name)
	assert.Contains(t, data, `"sector_id":"s1"`)
	assert.Contains(t, data, event.ID)
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	server := httptest.NewServer(http.HandlerFunc(handlers.NewSSEHandler(bus, 20*time.Millisecond).StreamSectorUpdates))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	name, _ := readEvent(t, reader)
	require.Equal(t, "connected", name)

	name, _ = readEvent(t, reader)
	assert.Equal(t, "heartbeat", name)
}
