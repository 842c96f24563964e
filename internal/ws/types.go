package ws

const (
	// client - server
	MsgPlay     = "play"
	MsgSimulate = "simulate"
	MsgReset    = "reset"
	MsgPing     = "ping"

	// both directions: client asks, server pushes
	MsgState = "state"

	// server - client
	MsgReady    = "ready"
	MsgPong     = "pong"
	MsgRejected = "rejected"
	MsgError    = "error"
)
