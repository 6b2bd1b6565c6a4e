// Package gateway talks to the chat/ingestion gateway: inbound command
// messages over websocket, outbound replies and OCR payload fetches over
// HTTP. Everything here is plumbing; the engine never imports it.
package gateway

import "github.com/veskur/warboard-bot/internal/blockgraph"

// Message is one inbound chat message.
type Message struct {
	Room     string `json:"room"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
	UploadID string `json:"upload_id,omitempty"`
}

// ScanPayload is an already-produced OCR result for one uploaded screenshot,
// retrieved from the gateway by upload id.
type ScanPayload struct {
	UploadID string             `json:"upload_id"`
	Invasion string             `json:"invasion,omitempty"`
	Blocks   []blockgraph.Block `json:"blocks"`
}

type replyRequest struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// State describes the websocket connection lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed"
)

// MessageHandler receives every inbound message.
type MessageHandler func(*Message)

// StateHandler observes connection state changes.
type StateHandler func(State)
