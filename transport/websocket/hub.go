package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Per-client send buffer.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// batch is a contiguous sequence of pre-marshaled events for one room
type batch struct {
	roomID   string
	payloads [][]byte
}

// Client represents one websocket connection of a player in a room
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	roomID   string
	playerID string
}

// Hub maintains the per-room client sets and fans out event batches
type Hub struct {
	// Registered clients by room ID
	rooms map[string]map[*Client]bool

	// Outbound event batches
	broadcast chan *batch

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new websocket hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *batch),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case b := <-h.broadcast:
			h.broadcastBatch(b)
		}
	}
}

// ServeWS upgrades the request and attaches the connection to a room
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, roomID, playerID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		roomID:   roomID,
		playerID: playerID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastBatch delivers the events to every connection in the room as a
// contiguous ordered sequence. Events must marshal to JSON; ones that do
// not are logged and skipped.
func (h *Hub) BroadcastBatch(roomID string, events ...interface{}) {
	if len(events) == 0 {
		return
	}

	payloads := make([][]byte, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Printf("Failed to marshal broadcast event for room %s: %v", roomID, err)
			continue
		}
		payloads = append(payloads, data)
	}

	h.broadcast <- &batch{roomID: roomID, payloads: payloads}
}

// registerClient adds a client to a room
func (h *Hub) registerClient(client *Client) {
	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true

	log.Printf("Client %s connected to room %s (total clients: %d)",
		client.playerID, client.roomID, len(h.rooms[client.roomID]))
}

// unregisterClient removes a client from a room
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.rooms[client.roomID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty rooms
			if len(clients) == 0 {
				delete(h.rooms, client.roomID)
			}

			log.Printf("Client %s disconnected from room %s (remaining clients: %d)",
				client.playerID, client.roomID, len(clients))
		}
	}
}

// broadcastBatch fans a batch out to the room, dropping clients whose send
// buffer is full so one slow connection never blocks the rest
func (h *Hub) broadcastBatch(b *batch) {
	clients, ok := h.rooms[b.roomID]
	if !ok {
		return
	}

	for client := range clients {
		delivered := true
		for _, payload := range b.payloads {
			select {
			case client.send <- payload:
			default:
				delivered = false
			}
			if !delivered {
				break
			}
		}
		if !delivered {
			h.unregisterClient(client)
		}
	}
}

// readPump drains the websocket connection. Client frames carry no game
// actions; reading keeps the connection and its pong handler alive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
