package ws

import (
	"errors"
	"log/slog"
	"sync"

	"rps_webapp/internal/game"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/service"
)

const registerBuffer = 16

type reply struct {
	client *Client
	msg    Message
}

// Room fans engine state out to every socket of one session. Clients is
// owned by the Run goroutine, which is also the only sender on a joined
// client's Send channel.
type Room struct {
	ID      string
	Clients map[*Client]struct{}

	Register   chan *Client
	Disconnect chan *Client

	session *service.Session
	hub     *Hub
	log     *slog.Logger

	// joins handed out by the hub and not yet taken off Register; guarded by hub.mu
	joining int

	replies chan reply
	done    chan struct{}

	// latest engine state, coalesced; changed is signalled without blocking
	// so the engine listener never waits on sockets
	latestMu sync.Mutex
	latest   game.State
	changed  chan struct{}

	ended   chan struct{}
	endOnce sync.Once
	closing bool
}

func NewRoom(sess *service.Session, hub *Hub) *Room {
	return &Room{
		ID:         sess.ID,
		Clients:    make(map[*Client]struct{}),
		Register:   make(chan *Client, registerBuffer),
		Disconnect: make(chan *Client, registerBuffer),
		session:    sess,
		hub:        hub,
		log:        logger.Component("ws_room").With("session_id", sess.ID),
		replies:    make(chan reply, sendBuffer),
		done:       make(chan struct{}),
		changed:    make(chan struct{}, 1),
		ended:      make(chan struct{}),
	}
}

func (r *Room) Run() {
	defer close(r.done)

	unsubscribe := r.session.Engine.Subscribe(r.onEvent)
	defer unsubscribe()

	ended := r.ended
	// closed before the subscription: EventClosed was already delivered
	if r.session.Engine.Closed() {
		r.endSession()
		ended = nil
	}

	for {
		if r.closing && r.hub.tryRemove(r) {
			return
		}

		select {
		case c := <-r.Register:
			r.hub.joined(r)
			r.join(c)

		case c := <-r.Disconnect:
			// a disconnect can be selected before its own register
			r.drainRegister()
			if _, ok := r.Clients[c]; !ok {
				continue
			}
			delete(r.Clients, c)
			close(c.Send)
			r.log.Debug("Room.Run: client left", "clients", len(r.Clients))

			if len(r.Clients) == 0 && !r.closing && r.hub.tryRemove(r) {
				return
			}

		case rp := <-r.replies:
			r.drainRegister()
			if _, ok := r.Clients[rp.client]; ok {
				rp.client.queue(rp.msg)
			}

		case <-r.changed:
			r.latestMu.Lock()
			st := r.latest
			r.latestMu.Unlock()
			r.broadcast(r.stateMessage(st))

		case <-ended:
			r.endSession()
			ended = nil
		}
	}
}

func (r *Room) join(c *Client) {
	if r.closing {
		c.queue(errorMessage("session closed"))
		close(c.Send)
		return
	}
	r.Clients[c] = struct{}{}
	r.log.Debug("Room.Run: client joined", "clients", len(r.Clients))
	c.queue(r.stateMessage(r.session.Engine.State()))
}

func (r *Room) drainRegister() {
	for {
		select {
		case c := <-r.Register:
			r.hub.joined(r)
			r.join(c)
		default:
			return
		}
	}
}

// endSession closes every socket once the session's engine is gone. Closing
// Send makes the write pump emit a close frame.
func (r *Room) endSession() {
	r.closing = true
	r.hub.detach(r)

	for c := range r.Clients {
		c.queue(errorMessage("session closed"))
		close(c.Send)
	}
	clear(r.Clients)
	r.log.Info("Room.endSession: session closed, sockets released")
}

func (r *Room) onEvent(ev game.Event) {
	if ev.Kind == game.EventClosed {
		r.endOnce.Do(func() { close(r.ended) })
		return
	}

	r.latestMu.Lock()
	r.latest = ev.State
	r.latestMu.Unlock()

	select {
	case r.changed <- struct{}{}:
	default:
	}
}

func (r *Room) broadcast(msg Message) {
	for c := range r.Clients {
		c.queue(msg)
	}
}

// send hands msg to the Run goroutine, which drops it if c has left
func (r *Room) send(c *Client, msg Message) {
	select {
	case r.replies <- reply{client: c, msg: msg}:
	case <-r.done:
	}
}

func (r *Room) stateMessage(st game.State) Message {
	return Message{Type: MsgState, Payload: r.hub.Sessions.View(st)}
}

// HandleMessage runs on the client's read goroutine. Accepted actions reach
// every socket through the engine events, so only rejections and errors are
// answered directly.
func (r *Room) HandleMessage(c *Client, raw []byte) {
	msg, err := decodeInbound(raw)
	if err != nil {
		r.send(c, errorMessage("invalid message"))
		return
	}

	var res service.ActionResult
	switch msg.Type {
	case MsgPing:
		r.send(c, Message{Type: MsgPong})
		return
	case MsgState:
		st, err := r.hub.Sessions.State(r.ID)
		if err != nil {
			r.send(c, serviceErrorMessage(err))
			return
		}
		r.send(c, r.stateMessage(st))
		return
	case MsgPlay:
		res, err = r.hub.Sessions.Play(r.ID, msg.Value)
	case MsgSimulate:
		res, err = r.hub.Sessions.Simulate(r.ID)
	case MsgReset:
		res, err = r.hub.Sessions.Reset(r.ID)
	}

	if err != nil {
		r.send(c, serviceErrorMessage(err))
		return
	}
	if !res.Accepted {
		r.send(c, Message{Type: MsgRejected, Payload: RejectedPayload{
			Action: msg.Type,
			State:  r.hub.Sessions.View(res.State),
		}})
	}
}

func errorMessage(text string) Message {
	return Message{Type: MsgError, Payload: ErrorPayload{Message: text}}
}

func serviceErrorMessage(err error) Message {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return errorMessage("session not found")
	case errors.Is(err, service.ErrInvalidMove):
		return errorMessage("invalid move")
	default:
		return errorMessage("internal error")
	}
}
