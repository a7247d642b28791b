package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/skysurety/skysurety/internal/ledger/event"
)

const (
	hubWriteTimeout   = 10 * time.Second
	hubSendBufferSize = 64
)

// EventMessage is the wire form of one journal event on the feed.
type EventMessage struct {
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	CallerID   string          `json:"caller_id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func toEventMessage(evt event.Event) EventMessage {
	return EventMessage{
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		Timestamp:  evt.Timestamp,
		CallerID:   evt.CallerID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Payload:    json.RawMessage(evt.PayloadJSON),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans journal events out to websocket followers. Slow followers are
// disconnected rather than allowed to block the feed.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan EventMessage
}

// NewHub creates an empty feed hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan EventMessage)}
}

// Publish forwards one event to every connected follower.
func (h *Hub) Publish(evt event.Event) {
	message := toEventMessage(evt)
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- message:
		default:
			delete(h.clients, conn)
			close(send)
		}
	}
}

// Close disconnects every follower.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
	}
}

func (h *Hub) register(conn *websocket.Conn) chan EventMessage {
	send := make(chan EventMessage, hubSendBufferSize)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	return send
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
}

// handleFeed upgrades the request and streams events until the client
// disconnects or the hub drops it.
func (h *Hub) handleFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("upgrade event feed: %v", err)
		return
	}
	send := h.register(conn)
	defer func() {
		h.unregister(conn)
		_ = conn.Close()
	}()

	// Reader goroutine drains control frames and signals disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case message, ok := <-send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
			if err := conn.WriteJSON(message); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
