package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event is the wire shape sent to monitoring clients.
type Event struct {
	Channel string                 `json:"channel"`
	Type    string                 `json:"type"`
	Data    map[string]interface{} `json:"data"`
}

// Hub manages active monitoring WebSocket connections grouped by channel and
// fans events out to them. It satisfies the engine's Publisher contract.
// Each connection carries its own write mutex: gorilla/websocket allows at
// most one concurrent writer per connection, and fan-out goroutines for
// back-to-back events would otherwise race on WriteJSON.
type Hub struct {
	channels  map[string]map[*websocket.Conn]*sync.Mutex
	broadcast chan Event
	mu        sync.Mutex
}

// NewHub creates a Hub and starts its broadcast goroutine.
func NewHub() *Hub {
	hub := &Hub{
		channels:  make(map[string]map[*websocket.Conn]*sync.Mutex),
		broadcast: make(chan Event, 100),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for ev := range h.broadcast {
		h.mu.Lock()
		clients := h.channels[ev.Channel]
		for conn, writeMu := range clients {
			go func(c *websocket.Conn, writeMu *sync.Mutex, ev Event) {
				writeMu.Lock()
				err := c.WriteJSON(ev)
				writeMu.Unlock()
				if err != nil {
					if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
						logrus.WithFields(logrus.Fields{
							"channel":  ev.Channel,
							"conn_ptr": fmt.Sprintf("%p", c),
						}).Info("Client connection closed during broadcast, unregistering.")
						h.UnregisterClient(ev.Channel, c)
					} else {
						logrus.WithError(err).WithField("channel", ev.Channel).Warn("Failed to send broadcast message to client.")
					}
				}
			}(conn, writeMu, ev)
		}
		h.mu.Unlock()
	}
}

// RegisterClient adds a monitoring connection to a channel.
func (h *Hub) RegisterClient(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*websocket.Conn]*sync.Mutex)
	}
	h.channels[channel][conn] = &sync.Mutex{}
	logrus.WithFields(logrus.Fields{
		"channel":  channel,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client registered with broadcast hub.")
}

// UnregisterClient removes a disconnected monitoring connection.
func (h *Hub) UnregisterClient(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.channels[channel]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	logrus.WithFields(logrus.Fields{
		"channel":  channel,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client unregistered from broadcast hub.")
}

// Publish queues an event for fan-out. The queue is bounded; when it is
// full the event is dropped with a warning rather than blocking ingestion.
func (h *Hub) Publish(ctx context.Context, channel, eventType string, payload map[string]interface{}) error {
	ev := Event{Channel: channel, Type: eventType, Data: payload}
	select {
	case h.broadcast <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		logrus.WithField("type", eventType).Warn("Broadcast channel full, dropping message.")
		return fmt.Errorf("broadcast queue full")
	}
}
