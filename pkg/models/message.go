package models

import "time"

// MessageType identifies a websocket server message
type MessageType string

const (
	MessageTypePipelineEvent MessageType = "pipeline_event"
	MessageTypeSubscribed    MessageType = "subscribed"
	MessageTypeError         MessageType = "error"
)

// ServerMessage is sent from server to dashboard clients
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is sent from dashboard clients to the server.
// Subscribe narrows events to the listed seasons; an empty list means all.
type ClientMessage struct {
	Type    string `json:"type"` // "subscribe"
	Seasons []int  `json:"seasons,omitempty"`
}
