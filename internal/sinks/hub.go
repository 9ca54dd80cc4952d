package sinks

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"itmscope/internal/daq"
	"itmscope/internal/itm"
)

const (
	writeWait = 5 * time.Second

	// sendQueue is the number of samples buffered per client before the
	// client is considered stalled and dropped.
	sendQueue = 256
)

// wsClient owns one connection. Only writePump writes to conn; the hub
// closes send to stop it.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// Hub broadcasts every decoded value as a JSON Sample to websocket clients.
// Broadcast never blocks on a client.
type Hub struct {
	ports    itm.PortConfig
	latest   *Latest
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub creates a hub. When latest is non-nil new clients first receive
// the current sample of every port.
func NewHub(ports itm.PortConfig, latest *Latest, log zerolog.Logger) *Hub {
	return &Hub{
		ports:  ports,
		latest: latest,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *Hub) HandleEvent(ev daq.Event) {
	if ev.Kind != daq.EventValue {
		return
	}
	msg, err := json.Marshal(NewSample(h.ports, ev))
	if err != nil {
		h.log.Error().Err(err).Msg("encode sample")
		return
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for every client. Clients whose queue is full are
// dropped.
func (h *Hub) Broadcast(msg []byte) {
	var stalled []*wsClient
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("dropping stalled websocket client")
		h.remove(c)
	}
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendQueue)}

	if h.latest != nil {
		for _, s := range h.latest.All() {
			msg, err := json.Marshal(s)
			if err != nil {
				continue
			}
			c.send <- msg // at most NumPorts samples, below sendQueue
		}
	}
	h.add(c)
	go c.writePump()
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(c)
			h.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client disconnected")
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	for c := range clients {
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// remove unregisters c and stops its writer. Safe to call more than once.
func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}
