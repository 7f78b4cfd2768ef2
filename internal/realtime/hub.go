package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Client struct {
	ID   string
	Conn *websocket.Conn
}

// Hub tracks connected websocket clients. The channel currently carries
// no application messages, clients connect for presence only, but
// Broadcast is wired for when the frontend starts listening.
type Hub struct {
	mutex   sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mutex.Lock()
	delete(h.clients, c)
	h.mutex.Unlock()

	if c.Conn == nil {
		return
	}
	if err := c.Conn.Close(); err != nil {
		log.Tracef("close ws conn %s: %s", c.ID, err)
	}
}

func (h *Hub) ClientsCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("broadcast, marshal payload: %s", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for c := range h.clients {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Tracef("broadcast to %s: %s", c.ID, err)
		}
	}
}
