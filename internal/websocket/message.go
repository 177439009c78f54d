package websocket

import (
	"encoding/json"
	"fmt"
)

// Envelope is what clients send: a bus topic and its JSON payload.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseEnvelope decodes one client frame.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Action == "" {
		return Envelope{}, ErrInvalidAction
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		env.Payload = json.RawMessage("{}")
	}
	return env, nil
}

// Message is what data clients receive.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// NewDataMessage encodes a typed frame for data clients.
func NewDataMessage(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Payload: payload})
}

// Command names understood by the browser client.
const (
	CmdReload        = "reload"
	CmdSessionClosed = "session_closed"
	CmdError         = "error"
)

// Command is a control frame.
type Command struct {
	Name   string `json:"name"`
	Detail any    `json:"detail,omitempty"`
}

// NewCommand encodes a control frame for data clients.
func NewCommand(name string, detail any) []byte {
	data, _ := json.Marshal(Message{Type: "command", Payload: Command{Name: name, Detail: detail}})
	return data
}
