package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action websocket request / response action
type Action string

const (
	// SendMessage client -> server, post a message
	SendMessage Action = "send_message"
	// ReadMessages client -> server, mark a conversation read
	ReadMessages Action = "read_messages"
	// Ping client -> server keepalive
	Ping Action = "ping"

	// EventMessage server -> client, new message
	EventMessage Action = "message"
	// EventConversationSummary server -> client, per-member conversation state
	EventConversationSummary Action = "conversation-summary"
	// EventError server -> client, request failed
	EventError Action = "error"
)

// WSRequest websocket Request
type WSRequest struct {
	Action          Action     `json:"action"`
	RequestID       string     `json:"request_id,omitempty"`
	ConversationID  uuid.UUID  `json:"conversation_id"`
	Body            string     `json:"body,omitempty"`
	Attachment      *string    `json:"attachment,omitempty"`
	ParentMessageID *uuid.UUID `json:"parent_id,omitempty"`
}

// WSResponse websocket Response, also the envelope of pushed events
type WSResponse struct {
	Action    Action      `json:"action"`
	RequestID string      `json:"request_id,omitempty"`
	Success   bool        `json:"success"`
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Push one event addressed to a set of accounts
type Push struct {
	AccountIDs []uuid.UUID `json:"account_ids"`
	Event      WSResponse  `json:"event"`
}

// DeliveryEvent published to the notification channel after a send commits
type DeliveryEvent struct {
	MessageID      uuid.UUID   `json:"message_id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	RecipientIDs   []uuid.UUID `json:"recipient_ids"`
	Online         []uuid.UUID `json:"online"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
