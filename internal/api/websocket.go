package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/calvinwijaya/klondike-be/internal/game"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP middleware
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Message types.
const (
	TypeSnapshot = "snapshot"
	TypeInput    = "input"
	TypeError    = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type   string      `json:"type"`
	GameID string      `json:"gameId,omitempty"`
	Key    string      `json:"key,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// InputHandler receives key presses read from clients.
type InputHandler interface {
	HandleKey(ctx context.Context, gameID string, key rune)
}

// Client represents a connected WebSocket client watching one game
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	hub    *Hub
}

// Hub maintains the set of active clients and pushes game snapshots to them
type Hub struct {
	clients    map[*Client]bool
	games      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	input      InputHandler
	logger     *zap.Logger
	ctx        context.Context
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		games:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		ctx:        context.Background(),
	}
}

// SetInputHandler sets where client key presses are forwarded
func (h *Hub) SetInputHandler(ih InputHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.input = ih
}

// Run starts the hub and blocks until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, exists := h.games[client.gameID]; !exists {
				h.games[client.gameID] = make(map[*Client]bool)
			}
			h.games[client.gameID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// remove drops a client; h.mu must be held.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if watchers := h.games[client.gameID]; watchers != nil {
		delete(watchers, client)
		// Clean up games nobody watches
		if len(watchers) == 0 {
			delete(h.games, client.gameID)
		}
	}
}

// Watchers returns how many clients follow gameID
func (h *Hub) Watchers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// BroadcastSnapshot sends snap to every client watching its game
func (h *Hub) BroadcastSnapshot(snap game.Snapshot) {
	h.BroadcastToGame(snap.ID, Message{Type: TypeSnapshot, GameID: snap.ID, Data: snap})
}

// BroadcastToGame sends a message to all clients of a specific game
func (h *Hub) BroadcastToGame(gameID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error marshaling message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.games[gameID] {
		select {
		case client.send <- data:
		default:
			// Client buffer is full; it will catch up on the next snapshot
			h.logger.Debug("dropped message for slow client", zap.String("game_id", gameID))
		}
	}
}

// ServeClient upgrades the connection and attaches it to snap's game. The
// snapshot is the first message the client receives.
func (h *Hub) ServeClient(w http.ResponseWriter, r *http.Request, snap game.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		gameID: snap.ID,
		hub:    h,
	}

	welcome, _ := json.Marshal(Message{Type: TypeSnapshot, GameID: snap.ID, Data: snap})
	client.send <- welcome

	select {
	case h.register <- client:
	case <-h.done():
		conn.Close()
		return
	}

	// Start goroutines for reading and writing
	go client.readPump()
	go client.writePump()
}

// done is closed once Run has stopped.
func (h *Hub) done() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx.Done()
}

func (h *Hub) forward(gameID string, key rune) {
	h.mu.RLock()
	ih, ctx := h.input, h.ctx
	h.mu.RUnlock()

	if ih != nil {
		ih.HandleKey(ctx, gameID, key)
	}
}

// readPump reads key presses from the connection and forwards them to the game
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Debug("error unmarshaling message", zap.Error(err))
			continue
		}
		if msg.Type != TypeInput {
			c.hub.logger.Debug("ignoring message", zap.String("type", msg.Type))
			continue
		}

		key, ok := singleKey(msg.Key)
		if !ok {
			c.reply(Message{Type: TypeError, GameID: c.gameID, Error: "key must be a single character"})
			continue
		}
		c.hub.forward(c.gameID, key)
	}
}

// reply queues a message for this client only.
func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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

			// One JSON document per frame
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
