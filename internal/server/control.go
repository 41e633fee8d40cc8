package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/control"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ControlHandler pushes control states to WebSocket clients. Each published
// state goes to every connected client; a slow client sees the latest state,
// not a backlog.
type ControlHandler struct {
	current func() control.ControlState
	mu      sync.RWMutex
	clients map[*controlClient]struct{}
}

type controlClient struct {
	conn *websocket.Conn
	send chan control.ControlState
}

// NewControlHandler creates a ControlHandler. current supplies the state
// sent to a client immediately on connect.
func NewControlHandler(current func() control.ControlState) *ControlHandler {
	return &ControlHandler{
		current: current,
		clients: make(map[*controlClient]struct{}),
	}
}

// Publish fans a control state out to all connected clients. It never
// blocks: when a client's buffer is full the pending state is replaced.
func (h *ControlHandler) Publish(state control.ControlState) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- state:
		default:
			// Drop the stale pending state and retry with the new one.
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- state:
			default:
			}
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &controlClient{
		conn: conn,
		send: make(chan control.ControlState, 1),
	}
	if h.current != nil {
		c.send <- h.current()
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Keep connection alive by reading messages
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state := <-c.send:
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
