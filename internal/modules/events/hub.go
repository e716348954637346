package events

import (
	"context"
	"sync"

	"lendhub/internal/modules/lending"

	"github.com/gorilla/websocket"
)

// session wraps one subscriber socket. gorilla/websocket allows a single
// concurrent writer per connection, so every write goes through mu.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *session) close() {
	_ = s.conn.Close()
}

// Hub fans reservation lifecycle events out to connected staff sessions.
// One connection per user id; a reconnect replaces the old socket.
type Hub struct {
	sessions map[int64]*session
	mutex    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[int64]*session),
	}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.sessions[userID]; exists && old != nil {
		old.close()
	}

	h.sessions[userID] = &session{conn: conn}
}

func (h *Hub) Unregister(userID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if s, exists := h.sessions[userID]; exists && s != nil {
		s.close()
		delete(h.sessions, userID)
	}
}

// Publish implements lending.EventSink. It may be called from any number
// of request goroutines at once; the per-session mutex serializes the
// frames. Dead connections are dropped on write failure.
func (h *Hub) Publish(_ context.Context, event lending.RequestEvent) {
	h.mutex.RLock()
	sessions := make(map[int64]*session, len(h.sessions))
	for id, s := range h.sessions {
		sessions[id] = s
	}
	h.mutex.RUnlock()

	for userID, s := range sessions {
		if err := s.send(event); err != nil {
			h.Unregister(userID)
		}
	}
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.sessions)
}
