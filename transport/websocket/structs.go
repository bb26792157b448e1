package websocket

import "encoding/json"

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type chatPayload struct {
	Message string `json:"message"`
}

// movePayload carries a partial position update; absent fields leave
// the current coordinate untouched.
type movePayload struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// betPayload keeps amount raw because clients send it either as a JSON
// number or as a string; the coordinator validates the literal itself.
type betPayload struct {
	Game   string          `json:"game"`
	Amount json.RawMessage `json:"amount"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// frame represents a WebSocket frame and its metadata.
type frame struct {
	isFin   bool
	opCode  byte
	length  uint64
	payload []byte
}
