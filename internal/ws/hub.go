// Package ws pushes live order updates to connected vendor sessions. The
// feed is best effort: slow or broken connections are dropped, and two
// sessions may transiently disagree until a refresh.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	vendorID string
	conn     *websocket.Conn
	send     chan []byte
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Serve upgrades the request and streams broadcasts for vendorID until the
// connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, vendorID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{vendorID: vendorID, conn: conn, send: make(chan []byte, 16)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
	return nil
}

// Broadcast sends the payload to every session of the vendor. Clients that
// cannot keep up are disconnected rather than blocking the caller.
func (h *Hub) Broadcast(vendorID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	var stale []*client
	for c := range h.clients {
		if c.vendorID != vendorID {
			continue
		}
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.drop(c)
	}
}

func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
}

// readLoop discards inbound frames; its job is to notice the close.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}
