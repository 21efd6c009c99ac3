package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Dials a real websocket client against the hub and floods it with events.
// Back-to-back events fan out on separate goroutines, so every frame must
// arrive intact; interleaved writes to one connection would corrupt them.
func TestHubDeliversBackToBackEvents(t *testing.T) {
	hub := NewHub()
	registered := make(chan struct{})
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient("gps_updates", conn)
		close(registered)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("client never registered with the hub")
	}

	const total = 25
	for i := 0; i < total; i++ {
		require.NoError(t, hub.Publish(context.Background(), "gps_updates", "tick", map[string]interface{}{"seq": float64(i)}))
	}

	require.NoError(t, client.SetReadDeadline(time.Now().Add(3*time.Second)))
	seen := make(map[float64]bool)
	for len(seen) < total {
		var ev Event
		require.NoError(t, client.ReadJSON(&ev))
		assert.Equal(t, "gps_updates", ev.Channel)
		assert.Equal(t, "tick", ev.Type)
		seq, ok := ev.Data["seq"].(float64)
		require.True(t, ok)
		seen[seq] = true
	}
	assert.Len(t, seen, total)
}
