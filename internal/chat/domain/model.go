package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile account fields used for display
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Image     *string   `json:"image,omitempty"`
}

// ConversationFilter list conversations query
// Archived nil 表示不過濾
type ConversationFilter struct {
	Archived *bool  `json:"archived,omitempty"`
	Search   string `json:"search,omitempty"`
	PageRequest
}

// ConversationRow one listed conversation for a member
type ConversationRow struct {
	Conversation Conversation
	Membership   Membership
	LastActivity *time.Time
}

// MessageModel message as seen by one viewer
type MessageModel struct {
	ID              uuid.UUID   `json:"id"`
	ConversationID  uuid.UUID   `json:"conversationId"`
	SenderID        uuid.UUID   `json:"senderId"`
	Body            *string     `json:"body"`
	AttachmentURL   *string     `json:"attachmentUrl,omitempty"`
	ParentMessageID *uuid.UUID  `json:"parentMessageId,omitempty"`
	IsPinned        bool        `json:"isPinned"`
	IsModified      bool        `json:"isModified"`
	IsDeleted       bool        `json:"isDeleted"`
	IsRead          bool        `json:"isRead"`
	Reaction        *Reaction   `json:"reaction,omitempty"`
	ReadBy          []uuid.UUID `json:"readBy"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// ConversationModel conversation as seen by one member
type ConversationModel struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Image           *string       `json:"image,omitempty"`
	IsRestricted    bool          `json:"isRestricted"`
	IsGroup         bool          `json:"isGroup"`
	IsArchived      bool          `json:"isArchived"`
	IsOwner         bool          `json:"isOwner"`
	NumberOfMembers int           `json:"numberOfMembers"`
	UnreadCount     int64         `json:"unreadCount"`
	LatestMessage   *MessageModel `json:"latestMessage,omitempty"`
	Members         []Profile     `json:"members,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ConversationSummary conversation-summary live event payload
type ConversationSummary struct {
	ConversationID uuid.UUID     `json:"conversationId"`
	UnreadCount    int64         `json:"unreadCount"`
	IsArchived     bool          `json:"isArchived"`
	LatestMessage  *MessageModel `json:"latestMessage,omitempty"`
}

// NewMessage send message input
type NewMessage struct {
	Body            string     `json:"body" validate:"required,max=4000"`
	AttachmentRef   *string    `json:"attachment,omitempty" validate:"omitempty,max=512"`
	ParentMessageID *uuid.UUID `json:"parentId,omitempty"`
}
