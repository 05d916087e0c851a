package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation definition a chat between an exact set of accounts
type Conversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         *string   `gorm:"size:128" json:"name,omitempty"`
	Image        *string   `gorm:"size:512" json:"image,omitempty"`
	IsRestricted bool      `gorm:"not null;default:false" json:"isRestricted"`
	// MemberKey normalized member set, unique among active conversations
	MemberKey string `gorm:"size:64;not null;index" json:"-"`
	Audit

	Memberships []Membership `gorm:"foreignKey:ConversationID" json:"memberships,omitempty"`
}

// Membership definition account <-> conversation join row
type Membership struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversationId"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null;index" json:"accountId"`
	IsOwner        bool      `gorm:"not null;default:false" json:"isOwner"`
	IsArchived     bool      `gorm:"not null;default:false" json:"isArchived"`
	Audit
}

// BeforeCreate assign id
func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assign id
func (m *Membership) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ActiveMemberships memberships not soft-deleted
func (c *Conversation) ActiveMemberships() []Membership {
	out := make([]Membership, 0, len(c.Memberships))
	for _, m := range c.Memberships {
		if m.IsActive() {
			out = append(out, m)
		}
	}
	return out
}

// MembershipOf active membership of accountID, nil when not a member
func (c *Conversation) MembershipOf(accountID uuid.UUID) *Membership {
	for i := range c.Memberships {
		m := &c.Memberships[i]
		if m.AccountID == accountID && m.IsActive() {
			return m
		}
	}
	return nil
}

// MemberIDs account ids of active memberships
func (c *Conversation) MemberIDs() []uuid.UUID {
	ms := c.ActiveMemberships()
	ids := make([]uuid.UUID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.AccountID)
	}
	return ids
}

// IsGroup more than two active members
func (c *Conversation) IsGroup() bool {
	return len(c.ActiveMemberships()) > 2
}

// MemberKey deterministic key of an account id set, independent of order and duplicates
func MemberKey(ids []uuid.UUID) string {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id.String()] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sum := sha256.Sum256([]byte(strings.Join(keys, ",")))
	return hex.EncodeToString(sum[:])
}
