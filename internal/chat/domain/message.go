package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction per-recipient reaction on a message
type Reaction string

const (
	ReactionLike  Reaction = "like"
	ReactionLove  Reaction = "love"
	ReactionLaugh Reaction = "laugh"
	ReactionWow   Reaction = "wow"
	ReactionSad   Reaction = "sad"
	ReactionAngry Reaction = "angry"
)

// Valid known reaction
func (r Reaction) Valid() bool {
	switch r {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// Message definition chat message, sender is Audit.CreatedBy
// 訊息不直接掛在 conversation 上, 而是透過每個成員的 MessageRecipient
type Message struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Body            string     `gorm:"type:text;not null" json:"body"`
	AttachmentRef   *string    `gorm:"size:512" json:"attachmentRef,omitempty"`
	ParentMessageID *uuid.UUID `gorm:"type:uuid;index" json:"parentMessageId,omitempty"`
	IsPinned        bool       `gorm:"not null;default:false" json:"isPinned"`
	Audit

	Recipients []MessageRecipient `gorm:"foreignKey:MessageID" json:"recipients,omitempty"`
}

// MessageRecipient definition message x membership, one per pair
type MessageRecipient struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_recipient_message_membership" json:"messageId"`
	MembershipID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_recipient_message_membership;index" json:"membershipId"`
	AccountID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"accountId"`
	IsRead       bool       `gorm:"not null;default:false" json:"isRead"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
	Reaction     *Reaction  `gorm:"size:16" json:"reaction,omitempty"`
	Audit
}

// BeforeCreate assign id
func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assign id
func (r *MessageRecipient) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SenderID account that sent the message
func (m *Message) SenderID() uuid.UUID {
	return m.CreatedBy
}

// RecipientOf active recipient row of accountID
func (m *Message) RecipientOf(accountID uuid.UUID) *MessageRecipient {
	for i := range m.Recipients {
		r := &m.Recipients[i]
		if r.AccountID == accountID && r.IsActive() {
			return r
		}
	}
	return nil
}

// MarkRead flip to read, already-read rows are left untouched
func (r *MessageRecipient) MarkRead(now time.Time) bool {
	if r.IsRead {
		return false
	}
	r.IsRead = true
	r.ReadAt = &now
	return true
}
