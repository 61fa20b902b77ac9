// Package realtime pushes garage change events to WebSocket clients.
//
// Clients join the room of a garage by sending
//
//	{"type": "subscribe-garage", "garageId": "<id>"}
//
// and leave it with "unsubscribe-garage". garage-updated events are
// delivered only to the room "garage-<id>"; garage-created and
// garage-deleted go to every connected client. Delivery is best effort:
// a client whose send buffer is full misses the message.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"garage_config/internal/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	MsgSubscribeGarage   = "subscribe-garage"
	MsgUnsubscribeGarage = "unsubscribe-garage"

	sendBufferSize = 64
	maxMessageSize = 4096
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// ClientMessage is what a client sends over the socket.
type ClientMessage struct {
	Type     string `json:"type"`
	GarageID string `json:"garageId"`
}

// ServerMessage is what the hub sends to clients.
type ServerMessage struct {
	Event     domain.GarageEventType `json:"event"`
	Data      json.RawMessage        `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the router
	},
}

type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
	}
}

// Run blocks until ctx is cancelled and then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeWS upgrades the request and starts the client's read and write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := newClient(h, conn)
	h.Register(client)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("websocket client connected", zap.Int("clients", n))
}

// Unregister removes c and closes its send channel. Only the call that
// actually removes the client closes the channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		c.close()
		h.log.Debug("websocket client disconnected", zap.Int("clients", n))
	}
}

// Publish delivers event to local clients. It satisfies the garage
// service's EventPublisher when no Redis relay is configured.
func (h *Hub) Publish(_ context.Context, event domain.GarageEvent) {
	h.Broadcast(event)
}

// Broadcast sends event to the clients in its room, or to everyone when the
// event is not room scoped.
func (h *Hub) Broadcast(event domain.GarageEvent) {
	data, err := json.Marshal(ServerMessage{
		Event:     event.Event,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		h.log.Error("failed to marshal garage event", zap.String("event", string(event.Event)), zap.Error(err))
		return
	}
	room := event.Room()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent, dropped := 0, 0
	for _, c := range clients {
		if room != "" && !c.inRoom(room) {
			continue
		}
		if c.trySend(data) {
			sent++
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		h.log.Warn("dropped garage event for slow clients",
			zap.String("event", string(event.Event)), zap.Int("dropped", dropped))
	}
	h.log.Debug("garage event broadcast",
		zap.String("event", string(event.Event)), zap.String("room", room), zap.Int("recipients", sent))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients currently in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.inRoom(room) {
			n++
		}
	}
	return n
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
		if c.conn != nil {
			c.conn.Close()
		}
	}
}
