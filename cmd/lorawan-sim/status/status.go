// Package status serves a debug websocket feed of simulator events,
// for a browser-based dashboard to tail live join/send/downlink
// activity while the simulator runs.
package status

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event is one broadcastable status-feed message.
type Event struct {
	Kind    string      `json:"kind"`
	DevEUI  string      `json:"dev_eui"`
	Detail  interface{} `json:"detail,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Feed fans out Events to every connected websocket client.
type Feed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewFeed constructs an empty Feed.
func NewFeed() *Feed {
	return &Feed{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the connection and registers it as a feed client.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()

	go func() {
		defer f.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *Feed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	conn.Close()
}

// Broadcast sends ev to every connected client, dropping any client
// whose write fails.
func (f *Feed) Broadcast(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Error("marshal status event failed")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			go f.remove(c)
		}
	}
}
