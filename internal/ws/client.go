package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"rps_webapp/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer   = 64
	maxFrameSize = 4096
)

// NewUpgrader accepts any origin when allowedOrigin is empty
func NewUpgrader(allowedOrigin string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
}

// Client is one socket attached to a session. Send is closed by the room
// that owns the client, or by Run when the client never joined one.
type Client struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte

	hub  *Hub
	room *Room
	log  *slog.Logger
}

func NewClient(sessionID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, sendBuffer),
		hub:       hub,
		log:       logger.Component("ws").With("session_id", sessionID),
	}
}

func (c *Client) Run() {
	go c.writePump()

	c.queue(Message{Type: MsgReady})

	room, err := c.hub.Join(c)
	if err != nil {
		c.log.Warn("Client.Run: join failed", "error", err)
		c.queue(Message{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		close(c.Send)
		return
	}
	c.room = room

	c.readPump()
}

func (c *Client) readPump() {
	defer c.hub.OnDisconnect(c)

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("Client.readPump: read error", "error", err)
			}
			return
		}
		c.room.HandleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("Client.writePump: write error", "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queue never blocks; a client too slow to drain its buffer misses frames
// and catches up on the next state push
func (c *Client) queue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("Client.queue: marshal error", "error", err)
		return
	}

	select {
	case c.Send <- data:
	default:
		c.log.Warn("Client.queue: send buffer full, dropping frame", "type", msg.Type)
	}
}
