package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumiere-studio/lumiere/internal/scene"
)

const (
	// sendBuffer is how many frames may queue for a slow client before
	// newer frames are dropped for it.
	sendBuffer = 8
	writeWait  = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type frameClient struct {
	conn *websocket.Conn
	send chan []byte
}

// FrameHub streams scene frames to renderer clients over WebSocket and
// forwards their input events. It implements scene.Sink.
type FrameHub struct {
	mu      sync.RWMutex
	clients map[*frameClient]bool
	input   func(scene.Input)
	closed  bool
}

// NewFrameHub creates an empty hub.
func NewFrameHub() *FrameHub {
	return &FrameHub{clients: make(map[*frameClient]bool)}
}

// OnInput sets the function receiving client input events.
func (h *FrameHub) OnInput(fn func(scene.Input)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.input = fn
}

// Clients returns the number of connected clients.
func (h *FrameHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements scene.Sink. It never blocks the frame loop.
func (h *FrameHub) Publish(frame scene.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(frame)
	if err != nil {
		log.Printf("frame encode error: %v", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FrameHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &frameClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	defer h.unregister(c)

	go c.writeLoop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var in scene.Input
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}

		h.mu.RLock()
		fn := h.input
		h.mu.RUnlock()
		if fn != nil {
			fn(in)
		}
	}
}

func (h *FrameHub) register(c *frameClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = true
	return true
}

func (h *FrameHub) unregister(c *frameClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *FrameHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// writeLoop owns all writes to the connection.
func (c *frameClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
