// internal/fakeserver/hub.go
//
// Websocket fan-out: every subscriber of a room gets every event for it.
// Each connection has its own buffered queue and writer goroutine; a
// subscriber that falls behind is dropped rather than blocking the others.

package fakeserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-client/internal/push"
)

const (
	sendQueue  = 32
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

type subscriber struct {
	conn *websocket.Conn
	send chan push.Event
	once sync.Once
}

func (c *subscriber) close() {
	c.once.Do(func() { close(c.send) })
}

type hub struct {
	mu    sync.Mutex
	rooms map[string]map[*subscriber]struct{}
	up    websocket.Upgrader
}

func newHub() *hub {
	return &hub{
		rooms: make(map[string]map[*subscriber]struct{}),
		up:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if _, err := s.store.getRoom(roomID); err != nil {
		http.Error(w, `{"error":"Room not found"}`, http.StatusNotFound)
		return
	}
	conn, err := s.hub.up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("roomId", roomID).Msg("websocket upgrade")
		return
	}
	c := &subscriber{conn: conn, send: make(chan push.Event, sendQueue)}
	s.hub.add(roomID, c)

	go c.writePump()
	// Reads only detect the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.remove(roomID, c)
}

func (c *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
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

func (h *hub) add(roomID string, c *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*subscriber]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
}

func (h *hub) remove(roomID string, c *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[roomID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	c.close()
}

func (h *hub) broadcast(ev push.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[ev.RoomID] {
		select {
		case c.send <- ev:
		default:
			delete(h.rooms[ev.RoomID], c)
			c.close()
		}
	}
}

// subscribers reports how many sockets are attached to roomID.
func (h *hub) subscribers(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, subs := range h.rooms {
		for c := range subs {
			c.close()
		}
		delete(h.rooms, id)
	}
}

// Subscribers reports how many websocket clients are attached to roomID.
func (s *Server) Subscribers(roomID string) int { return s.hub.subscribers(roomID) }
