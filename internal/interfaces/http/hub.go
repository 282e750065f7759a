package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Read-only local service; origin filtering is the deployment's concern.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub fans zone lifecycle events out to websocket subscribers. Slow
// clients are dropped rather than allowed to backpressure bar processing.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*websocket.Conn]chan []byte)}
}

// Broadcast sends every event in the snapshot to all subscribers.
func (h *EventHub) Broadcast(events []zone.Event) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Msg("marshal zone event")
			continue
		}
		for conn, out := range h.clients {
			select {
			case out <- payload:
			default:
				log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("dropping slow event subscriber")
				h.dropLocked(conn)
			}
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	out := make(chan []byte, 64)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = out
	h.mu.Unlock()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("event subscriber connected")

	// Reader goroutine notices client disconnects; inbound frames are ignored.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				h.dropLocked(conn)
				h.mu.Unlock()
				return
			}
		}
	}()

	for payload := range out {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.mu.Lock()
			h.dropLocked(conn)
			h.mu.Unlock()
			return
		}
	}
	conn.Close()
}

// Close disconnects every subscriber.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		h.dropLocked(conn)
	}
}

func (h *EventHub) dropLocked(conn *websocket.Conn) {
	if out, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(out)
		conn.Close()
	}
}
