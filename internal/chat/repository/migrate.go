package repository

import (
	"fmt"

	"chat_delivery_service/internal/chat/domain"

	"gorm.io/gorm"
)

// partial unique indexes gorm tags cannot express
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_conversations_member_key_active
		ON conversations (member_key) WHERE status = 0`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_memberships_account_conversation_active
		ON memberships (account_id, conversation_id) WHERE status = 0`,
	`CREATE INDEX IF NOT EXISTS ix_recipients_membership_unread
		ON message_recipients (membership_id) WHERE status = 0 AND is_read = false`,
}

// Migrate create / update chat tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Conversation{},
		&domain.Membership{},
		&domain.Message{},
		&domain.MessageRecipient{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
