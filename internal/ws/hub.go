package ws

import (
	"log/slog"
	"sync"

	"rps_webapp/internal/logger"
	"rps_webapp/internal/service"
)

// Hub keeps one Room per game session. Every socket opened with the same
// session token joins the same room and sees the same state pushes.
type Hub struct {
	Sessions *service.SessionService

	mu    sync.Mutex
	rooms map[string]*Room
	log   *slog.Logger
}

func NewHub(sessions *service.SessionService) *Hub {
	return &Hub{
		Sessions: sessions,
		rooms:    make(map[string]*Room),
		log:      logger.Component("ws_hub"),
	}
}

// Join attaches c to its session's room, starting the room if needed.
func (h *Hub) Join(c *Client) (*Room, error) {
	sess, err := h.Sessions.Get(c.SessionID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	room, ok := h.rooms[sess.ID]
	if !ok {
		room = NewRoom(sess, h)
		h.rooms[sess.ID] = room
		go room.Run()
		h.log.Info("Hub.Join: room started", "session_id", sess.ID, "rooms", len(h.rooms))
	}
	// the room will not stop while joining > 0
	room.joining++
	h.mu.Unlock()

	room.Register <- c
	return room, nil
}

func (h *Hub) OnDisconnect(c *Client) {
	if c.room == nil {
		return
	}
	select {
	case c.room.Disconnect <- c:
	case <-c.room.done:
	}
}

// joined is called by the room for every client it takes off Register
func (h *Hub) joined(r *Room) {
	h.mu.Lock()
	r.joining--
	h.mu.Unlock()
}

// detach stops routing new joins to r
func (h *Hub) detach(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[r.ID] == r {
		delete(h.rooms, r.ID)
	}
}

// tryRemove drops r unless a Join is still on its way in.
func (h *Hub) tryRemove(r *Room) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r.joining > 0 {
		return false
	}
	if h.rooms[r.ID] == r {
		delete(h.rooms, r.ID)
	}
	h.log.Info("Hub.tryRemove: room stopped", "session_id", r.ID, "rooms", len(h.rooms))
	return true
}

func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}
