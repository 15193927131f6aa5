/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the real-time side of the server.

    It keeps a registry of connected clients and fans every published
    factory event (placements, deposits, ticks) out to all of them.

    Architecture:
    - Hub: one per server, its Run loop owns the client set.
    - Client: one browser connection with its own outbound buffer.
    - ServeWs: upgrades a GET request to a WebSocket and registers it.
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message is the JSON envelope for everything sent over the socket.
type Message struct {
	Type    string      `json:"type"`    // Event type (e.g. "tick", "building_placed")
	Payload interface{} `json:"payload"` // Event data
	Sender  string      `json:"sender"`  // "system" for server events
}

// Event types pushed to clients.
const (
	EventBuildingPlaced  = "building_placed"
	EventBuildingRemoved = "building_removed"
	EventBuildingUpdated = "building_updated"
	EventBuildingsLinked = "buildings_linked"
	EventTick            = "tick"
)

// Client is a single connected subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // Buffered outbound messages
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	log *zap.Logger

	// Only the Run goroutine touches this map.
	clients map[*Client]bool
	count   atomic.Int64

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns

	upgrader   websocket.Upgrader
	sendBuffer int
}

// NewHub creates a hub. Start it with `go hub.Run(ctx)`.
func NewHub(log *zap.Logger, allowOrigin string, sendBuffer int) *Hub {
	return &Hub{
		log:        log.Named("hub"),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return allowOrigin == "*" || r.Header.Get("Origin") == allowOrigin
			},
		},
	}
}

// Run is the hub's event loop. It returns when ctx is done, closing every
// client's outbound channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Add(1)
			h.log.Debug("client registered", zap.String("remote", client.conn.RemoteAddr().String()))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full: the client is stuck or gone.
					h.log.Warn("dropping slow client", zap.String("remote", client.conn.RemoteAddr().String()))
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

// ClientCount is the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish wraps payload in a system Message and broadcasts it.
func (h *Hub) Publish(ctx context.Context, eventType string, payload interface{}) {
	raw, err := json.Marshal(Message{Type: eventType, Payload: payload, Sender: "system"})
	if err != nil {
		h.log.Error("marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- raw:
	case <-ctx.Done():
	case <-h.done:
	}
}

// ServeWs upgrades the request and registers the new client.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, h.sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Separate pumps so one slow client never blocks the hub.
	go client.writePump()
	go client.readPump()
}

// readPump only watches for the connection closing. Clients drive the
// factory through the HTTP API, so inbound frames are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("client read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump sends queued messages until the hub closes c.send.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
