// internal/notify/hub.go
//
// WebSocket fan-out for server-wide announcements. The only event today
// is the global bonus fired when a player makes the first-ever
// discovery of an Epic-or-rarer reward.
//
// Delivery is fire-and-forget: each client has a buffered send channel
// drained by its own write pump, and clients that cannot keep up are
// disconnected rather than allowed to block a completion request.

package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/phrasecraft/go-server/internal/reward"
)

// GlobalBonusEvent is broadcast to every connected client.
type GlobalBonusEvent struct {
	Type       string    `json:"type"` // always "global_bonus"
	PlayerID   string    `json:"playerId"`
	RewardID   string    `json:"rewardId"`
	Symbol     string    `json:"symbol"`
	RarityTier string    `json:"rarityTier"`
	At         time.Time `json:"at"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, 16)}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() { close(c.send) }

// Hub tracks connected notification clients.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	upgrader websocket.Upgrader
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin enforcement happens at the CORS layer; the feed is
			// broadcast-only and carries no per-player secrets.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and parks the connection until the
// peer goes away. Incoming frames are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("notify upgrade failed")
		return
	}
	c := newClient(conn)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// GlobalBonus broadcasts a first-discovery bonus announcement.
func (h *Hub) GlobalBonus(playerID string, def reward.Definition) {
	ev := GlobalBonusEvent{
		Type:       "global_bonus",
		PlayerID:   playerID,
		RewardID:   def.ID,
		Symbol:     def.Symbol,
		RarityTier: def.RarityTier,
		At:         time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("marshal global bonus event")
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Msg("notify client too slow, disconnecting")
			h.remove(c)
		}
	}
}

// ClientCount reports connected clients (used by health output).
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
