// Package realtime delivers lifecycle events to connected riders and drivers.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrAddressNotConnected is returned when no connection is registered for the address.
	ErrAddressNotConnected = errors.New("address not connected")

	// ErrSendBufferFull is returned when every connection for the address is backed up.
	ErrSendBufferFull = errors.New("send buffer full")
)

const (
	authTimeout    = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
	sendBufferSize = 64
)

// AuthFunc validates a token and returns the caller's identity.
type AuthFunc func(token string) (userID, role string, err error)

// Message is the frame written to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks authenticated WebSocket connections by user ID.
type Hub struct {
	auth     AuthFunc
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

type client struct {
	userID string
	role   string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// NewHub creates a new Hub.
func NewHub(auth AuthFunc) *Hub {
	return &Hub{
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

// Deliver queues an event for every connection of address. It fails only if
// none of them accepted it.
func (h *Hub) Deliver(ctx context.Context, address, event string, payload any) error {
	msg, err := json.Marshal(Message{Type: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := h.clients[address]
	if len(conns) == 0 {
		return ErrAddressNotConnected
	}

	queued := 0
	for c := range conns {
		select {
		case c.send <- msg:
			queued++
		default:
		}
	}
	if queued == 0 {
		return ErrSendBufferFull
	}
	return nil
}

// Connected reports whether the user has at least one open connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ServeWS upgrades the request and authenticates the connection. The token
// is taken from the "token" query parameter or, failing that, from the
// first message {"token": "..."}.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HUB] upgrade failed: %v", err)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		_ = conn.SetReadDeadline(time.Now().Add(authTimeout))
		var authMsg struct {
			Token string `json:"token"`
		}
		if err := conn.ReadJSON(&authMsg); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "auth timeout"))
			_ = conn.Close()
			return
		}
		token = authMsg.Token
	}

	userID, role, err := h.auth(token)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"))
		_ = conn.Close()
		log.Printf("[HUB] auth rejected: %v", err)
		return
	}

	c := &client{
		userID: userID,
		role:   role,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}

	h.register(c)
	_ = conn.WriteJSON(map[string]string{"status": "authenticated", "user_id": userID})

	go h.writePump(c)
	go h.readPump(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			c.close()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}
	log.Printf("[HUB] connected user=%s role=%s", c.userID, c.role)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[c.userID]
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	c.close()
	log.Printf("[HUB] disconnected user=%s", c.userID)
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// readPump discards inbound frames; it exists to process pongs and notice
// disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[HUB] read error user=%s: %v", c.userID, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
