package notifyws

import (
	"encoding/json"
	"log"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/services"
)

// Hub fans wake-up signals out to connected admin dashboards. The payload is
// a hint to re-run read queries, never a state delta, so dropped or
// out-of-order deliveries are harmless: a reconnecting client just
// re-fetches current state.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan services.Signal
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan services.Signal, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case signal := <-h.broadcast:
			h.deliver(signal)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish never blocks the caller; if the hub is flooded the signal is
// dropped, which only delays the dashboard until its next refresh.
func (h *Hub) Publish(signal services.Signal) {
	select {
	case h.broadcast <- signal:
	default:
	}
}

func (h *Hub) deliver(signal services.Signal) {
	payload, err := json.Marshal(signal)
	if err != nil {
		log.Printf("notification hub encode signal: %v", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// ReadPump discards incoming frames; the feed is one-way. It exists so the
// connection close is noticed and the client unregistered.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
