package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_delivery_service/internal/chat/domain"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository definition message + recipient persistence
type MessageRepository interface {
	// Save insert msg and msg.Recipients and un-archive the given memberships in one transaction
	Save(ctx context.Context, msg *domain.Message, unarchive []uuid.UUID) error
	// ListForMembership messages visible to a membership, newest first, recipients preloaded
	ListForMembership(ctx context.Context, membershipID uuid.UUID, page domain.PageRequest) ([]domain.Message, int64, error)
	// MarkRead flip the given unread rows, returns rows changed
	MarkRead(ctx context.Context, recipientIDs []uuid.UUID, at time.Time) (int64, error)
	// MarkAllRead flip every unread active row of a membership, returns rows changed
	MarkAllRead(ctx context.Context, membershipID uuid.UUID, at time.Time) (int64, error)
	// SoftDeleteForMembership hide every row of a membership
	SoftDeleteForMembership(ctx context.Context, membershipID, actor uuid.UUID, at time.Time) (int64, error)
	// SoftDeleteOne hide one message for a membership
	SoftDeleteOne(ctx context.Context, membershipID, messageID, actor uuid.UUID, at time.Time) (int64, error)
	// SetReaction set or clear the reaction on one row
	SetReaction(ctx context.Context, membershipID, messageID uuid.UUID, reaction *domain.Reaction, actor uuid.UUID, at time.Time) (int64, error)
	UnreadCounts(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	// Latest newest visible message per membership
	Latest(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]domain.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository create a gorm MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Save(ctx context.Context, msg *domain.Message, unarchive []uuid.UUID) error {
	recipients := msg.Recipients
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}

		for i := range recipients {
			recipients[i].MessageID = msg.ID
		}
		res := tx.Create(&recipients)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(recipients)) {
			return domain.ErrPersistenceFailed
		}

		if len(unarchive) == 0 {
			return nil
		}
		res = tx.Model(&domain.Membership{}).
			Where("id IN ? AND status = ?", unarchive, domain.StatusActive).
			Updates(map[string]interface{}{
				"is_archived": false,
				"modified_at": msg.CreatedAt,
				"modified_by": msg.CreatedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(unarchive)) {
			return domain.ErrPersistenceFailed
		}
		return nil
	})
	if err == nil {
		msg.Recipients = recipients
		return nil
	}
	if errors.Is(err, domain.ErrPersistenceFailed) {
		return err
	}
	return errprocess.Wrap(errprocess.PersistenceFailed, "save message", err)
}

func (r *messageRepository) visible(db *gorm.DB, membershipID uuid.UUID) *gorm.DB {
	return db.Model(&domain.Message{}).
		Joins("JOIN message_recipients vr ON vr.message_id = messages.id AND vr.membership_id = ? AND vr.status = ?",
			membershipID, domain.StatusActive)
}

func (r *messageRepository) ListForMembership(ctx context.Context, membershipID uuid.UUID, page domain.PageRequest) ([]domain.Message, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := r.visible(db, membershipID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	var msgs []domain.Message
	err := r.visible(db, membershipID).
		Preload("Recipients").
		Order("messages.created_at DESC, messages.id").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return msgs, total, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, recipientIDs []uuid.UUID, at time.Time) (int64, error) {
	if len(recipientIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&domain.MessageRecipient{}).
		Where("id IN ? AND is_read = ? AND status = ?", recipientIDs, false, domain.StatusActive).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, errprocess.Wrap(errprocess.PersistenceFailed, "mark read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) MarkAllRead(ctx context.Context, membershipID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.MessageRecipient{}).
		Where("membership_id = ? AND is_read = ? AND status = ?", membershipID, false, domain.StatusActive).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, errprocess.Wrap(errprocess.PersistenceFailed, "mark conversation read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) SoftDeleteForMembership(ctx context.Context, membershipID, actor uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.MessageRecipient{}).
		Where("membership_id = ? AND status = ?", membershipID, domain.StatusActive).
		Updates(deletion(actor, at))
	if res.Error != nil {
		return 0, errprocess.Wrap(errprocess.PersistenceFailed, "delete conversation view", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) SoftDeleteOne(ctx context.Context, membershipID, messageID, actor uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.MessageRecipient{}).
		Where("membership_id = ? AND message_id = ? AND status = ?", membershipID, messageID, domain.StatusActive).
		Updates(deletion(actor, at))
	if res.Error != nil {
		return 0, errprocess.Wrap(errprocess.PersistenceFailed, "delete message view", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) SetReaction(ctx context.Context, membershipID, messageID uuid.UUID, reaction *domain.Reaction, actor uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.MessageRecipient{}).
		Where("membership_id = ? AND message_id = ? AND status = ?", membershipID, messageID, domain.StatusActive).
		Updates(map[string]interface{}{"reaction": reaction, "modified_at": at, "modified_by": actor})
	if res.Error != nil {
		return 0, errprocess.Wrap(errprocess.PersistenceFailed, "set reaction", res.Error)
	}
	return res.RowsAffected, nil
}

func deletion(actor uuid.UUID, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":     domain.StatusDeleted,
		"deleted_at": at,
		"deleted_by": actor,
	}
}

type unreadRow struct {
	MembershipID uuid.UUID
	Unread       int64
}

func (r *messageRepository) UnreadCounts(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(membershipIDs))
	if len(membershipIDs) == 0 {
		return out, nil
	}
	var rows []unreadRow
	err := r.db.WithContext(ctx).
		Model(&domain.MessageRecipient{}).
		Select("membership_id, COUNT(*) AS unread").
		Where("membership_id IN ? AND is_read = ? AND status = ?", membershipIDs, false, domain.StatusActive).
		Group("membership_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	for _, row := range rows {
		out[row.MembershipID] = row.Unread
	}
	return out, nil
}

type latestRow struct {
	MembershipID uuid.UUID
	MessageID    uuid.UUID
}

func (r *messageRepository) Latest(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]domain.Message, error) {
	out := make(map[uuid.UUID]domain.Message, len(membershipIDs))
	if len(membershipIDs) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)

	var rows []latestRow
	err := db.Raw(`SELECT DISTINCT ON (r.membership_id) r.membership_id, r.message_id
FROM message_recipients r
JOIN messages m ON m.id = r.message_id
WHERE r.membership_id IN ? AND r.status = ?
ORDER BY r.membership_id, m.created_at DESC, m.id`, membershipIDs, domain.StatusActive).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest messages: %w", err)
	}
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MessageID)
	}
	var msgs []domain.Message
	if err := db.Preload("Recipients").Where("id IN ?", ids).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load latest messages: %w", err)
	}
	byID := make(map[uuid.UUID]domain.Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}
	for _, row := range rows {
		if m, ok := byID[row.MessageID]; ok {
			out[row.MembershipID] = m
		}
	}
	return out, nil
}
