package server

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to a listener
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from a listener
	pongWait = 60 * time.Second

	// Pings are sent at this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Listeners never send data, only control frames
	maxMessageSize = 512

	// Frames buffered per listener before new frames are dropped for it
	sendQueueSize = 16
)

// client is one WebSocket listener.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans encoded frames out to every connected WebSocket listener.
// Broadcast never blocks: a listener whose queue is full misses the frame.
type Hub struct {
	name     string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	latest  []byte
	closed  bool

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewHub creates a hub. allowedOrigins restricts the Origin header of
// upgrade requests; "*" or an empty list accepts any origin.
func NewHub(name string, allowedOrigins []string) *Hub {
	h := &Hub{
		name:    name,
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		return set[origin]
	}
}

// ServeHTTP upgrades the request and registers the listener. The most
// recent frame, if any, is queued immediately so new listeners do not wait
// for the next tick.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️  %s: WebSocket upgrade failed: %v", h.name, err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	log.Printf("🔌 %s listener %s connected from %s (%d total)", h.name, c.id, r.RemoteAddr, h.Clients())

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.Printf("👋 %s listener %s disconnected (%d remaining)", h.name, c.id, remaining)
	}
}

// Broadcast queues frame for every listener and remembers it for new ones.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = frame
	for _, c := range h.clients {
		select {
		case c.send <- frame:
			h.sent.Add(1)
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected listeners.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Sent returns the number of frames queued to listeners.
func (h *Hub) Sent() uint64 {
	return h.sent.Load()
}

// Dropped returns the number of frames skipped for slow listeners.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close disconnects every listener and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// readPump discards inbound messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️  %s listener %s read error: %v", h.name, c.id, err)
			}
			return
		}
	}
}

// writePump is the only writer on c.conn.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("⚠️  %s listener %s write failed: %v", h.name, c.id, err)
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
