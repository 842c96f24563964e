package ws

import (
	"encoding/json"
	"errors"
	"strings"

	"rps_webapp/internal/service"
)

var errUnknownType = errors.New("unknown message type")

// Message is a server frame
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// client → server
type inbound struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"` // move label for play
}

// server → client
type RejectedPayload struct {
	Action string            `json:"action"`
	State  service.StateView `json:"state"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func decodeInbound(raw []byte) (inbound, error) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return inbound{}, err
	}
	msg.Type = strings.ToLower(strings.TrimSpace(msg.Type))

	switch msg.Type {
	case MsgPlay, MsgSimulate, MsgReset, MsgPing, MsgState:
		return msg, nil
	default:
		return inbound{}, errUnknownType
	}
}
