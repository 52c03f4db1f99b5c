package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings.
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for timestamps.
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON implements custom marshaling (always output as RFC3339).
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Message types for WebSocket communication.
const (
	MessageTypeSystem = "system"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"

	// Server pushed feed events.
	MessageTypeNewPost     = "new_post"
	MessageTypePostDeleted = "post_deleted"
	MessageTypeFeedPage    = "feed_page"
	MessageTypePostUpdate  = "post_update"

	// Client feed commands.
	MessageTypeFeedLoad       = "feed_load"
	MessageTypeFeedMore       = "feed_more"
	MessageTypeFeedTab        = "feed_tab"
	MessageTypeFeedFilters    = "feed_filters"
	MessageTypeToggleLike     = "toggle_like"
	MessageTypeToggleRepost   = "toggle_repost"
	MessageTypeToggleBookmark = "toggle_bookmark"
	MessageTypeToggleReaction = "toggle_reaction"
)

// Message represents a WebSocket message.
type Message struct {
	// Type identifies the message type for routing.
	Type string `json:"type"`

	// Payload contains the message-specific data.
	Payload interface{} `json:"payload,omitempty"`

	// ID is a unique message identifier for acknowledgment.
	ID string `json:"id,omitempty"`

	// ReplyTo references the original message ID for responses.
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp when the message was created (accepts Unix ms or RFC3339).
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorMessage creates an error message.
func NewErrorMessage(code, text string) *Message {
	return NewMessage(MessageTypeError, ErrorPayload{Code: code, Message: text})
}

// ParsePayload unmarshals the payload into the given struct.
func (m *Message) ParsePayload(v interface{}) error {
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorPayload carries an error to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingPayload is the client's ping body.
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload is the server's pong body.
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency"`
}
