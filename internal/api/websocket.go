package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal caps status-stream connections.
	MaxWSConnectionsTotal = 100

	// MaxWSConnectionsPerIP caps connections per client address.
	MaxWSConnectionsPerIP = 4

	wsWriteTimeout   = 5 * time.Second
	wsStatusInterval = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// localhost-only server; the origin gate is the bind address
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// WebSocketHub streams engine status samples to debug clients.
type WebSocketHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]*wsClient
	perIP    map[string]int
	stopChan chan struct{}
	stopOnce sync.Once

	statusFunc func() Status
}

// NewWebSocketHub returns a hub; Start launches its broadcast loop.
func NewWebSocketHub(statusFunc func() Status) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		perIP:      make(map[string]int),
		stopChan:   make(chan struct{}),
		statusFunc: statusFunc,
	}
}

// Start begins the periodic status broadcast.
func (h *WebSocketHub) Start() {
	go func() {
		ticker := time.NewTicker(wsStatusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				h.broadcast()
			}
		}
	}()
}

// Stop ends the broadcast loop and closes every connection.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]*wsClient)
	h.perIP = make(map[string]int)
}

// Handle upgrades one request into the status stream.
func (h *WebSocketHub) Handle(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	h.mu.Lock()
	if len(h.clients) >= MaxWSConnectionsTotal || h.perIP[ip] >= MaxWSConnectionsPerIP {
		h.mu.Unlock()
		RecordConnectionRejected("ws_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	h.mu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = &wsClient{conn: conn, ip: ip}
	h.perIP[ip]++
	wsConnectionsActive.Set(float64(len(h.clients)))
	h.mu.Unlock()

	// reader loop only to observe close; inbound frames are ignored
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *WebSocketHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[conn]; ok {
		h.perIP[c.ip]--
		if h.perIP[c.ip] <= 0 {
			delete(h.perIP, c.ip)
		}
		delete(h.clients, conn)
		wsConnectionsActive.Set(float64(len(h.clients)))
	}
	conn.Close()
}

func (h *WebSocketHub) broadcast() {
	status := h.statusFunc()

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(status); err != nil {
			h.drop(conn)
		}
	}
}
