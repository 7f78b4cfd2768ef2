package realtime

import (
	"net/http"
	"time"

	"github.com/burnmate/burnmate/internal/telemetry/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const pingInterval = 30 * time.Second

type Handler struct {
	hub            *Hub
	upgrader       websocket.Upgrader
	metricsManager *metrics.Manager
}

func NewHandler(hub *Hub, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// cross-origin policy is enforced by the cors middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metricsManager: metricsManager,
	}
}

func (handler *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("ws upgrade: %s", err)
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		Conn: conn,
	}
	handler.hub.Register(client)
	handler.metricsManager.GaugeWsClients.Inc()
	log.Debugf("ws client connected: %s", client.ID)

	go handler.serveClient(client)
}

// serveClient drains incoming messages and pings the peer until the
// connection drops. Incoming messages are ignored.
func (handler *Handler) serveClient(client *Client) {
	defer func() {
		handler.hub.Unregister(client)
		handler.metricsManager.GaugeWsClients.Dec()
		log.Debugf("ws client disconnected: %s", client.ID)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := client.Conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.Conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(5*time.Second),
			); err != nil {
				log.Tracef("ws ping %s: %s", client.ID, err)
				return
			}
		}
	}
}
