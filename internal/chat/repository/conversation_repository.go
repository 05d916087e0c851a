package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	accountdomain "chat_delivery_service/internal/account/domain"
	"chat_delivery_service/internal/chat/domain"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRepository definition conversation + membership persistence
type ConversationRepository interface {
	// Create insert conversation and its memberships atomically,
	// domain.ErrConversationExists when an active one has the same member set
	Create(ctx context.Context, conv *domain.Conversation) error
	// FindByID active conversation with active memberships
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// FindByMemberKey nil, nil when no active conversation has the member set
	FindByMemberKey(ctx context.Context, key string) (*domain.Conversation, error)
	SetArchived(ctx context.Context, membershipID uuid.UUID, archived bool, actor uuid.UUID) error
	// ListForMember conversations where the member still has visible messages, latest activity first.
	// filter.Search keeps conversations with a non-deleted member whose name, username or email contains it.
	ListForMember(ctx context.Context, accountID uuid.UUID, filter domain.ConversationFilter) ([]domain.ConversationRow, int64, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository create a gorm ConversationRepository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	err := r.db.WithContext(ctx).Create(conv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("create conversation: %w", domain.ErrConversationExists)
	}
	if err != nil {
		return errprocess.Wrap(errprocess.PersistenceFailed, "create conversation", err)
	}
	return nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Memberships", "status = ?", domain.StatusActive).
		Where("id = ? AND status = ?", id, domain.StatusActive).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation %s: %w", id, err)
	}
	return &conv, nil
}

func (r *conversationRepository) FindByMemberKey(ctx context.Context, key string) (*domain.Conversation, error) {
	var convs []domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Memberships", "status = ?", domain.StatusActive).
		Where("member_key = ? AND status = ?", key, domain.StatusActive).
		Limit(1).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("find conversation by members: %w", err)
	}
	if len(convs) == 0 {
		return nil, nil
	}
	return &convs[0], nil
}

func (r *conversationRepository) SetArchived(ctx context.Context, membershipID uuid.UUID, archived bool, actor uuid.UUID) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("id = ? AND status = ?", membershipID, domain.StatusActive).
		Updates(map[string]interface{}{
			"is_archived": archived,
			"modified_at": now,
			"modified_by": actor,
		})
	if res.Error != nil {
		return errprocess.Wrap(errprocess.PersistenceFailed, "archive membership", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPersistenceFailed
	}
	return nil
}

type listHit struct {
	ConversationID uuid.UUID
	MembershipID   uuid.UUID
	LastActivity   *time.Time
}

func (r *conversationRepository) ListForMember(ctx context.Context, accountID uuid.UUID, filter domain.ConversationFilter) ([]domain.ConversationRow, int64, error) {
	db := r.db.WithContext(ctx)

	q := db.Table("conversations AS c").
		Select("c.id AS conversation_id, mb.id AS membership_id, MAX(m.created_at) AS last_activity").
		Joins("JOIN memberships mb ON mb.conversation_id = c.id AND mb.account_id = ? AND mb.status = ?", accountID, domain.StatusActive).
		Joins("JOIN message_recipients r ON r.membership_id = mb.id AND r.status = ?", domain.StatusActive).
		Joins("JOIN messages m ON m.id = r.message_id").
		Where("c.status = ?", domain.StatusActive)
	if filter.Archived != nil {
		q = q.Where("mb.is_archived = ?", *filter.Archived)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		// accounts 跟 chat 在同一個 database, 搜尋留在 SQL 內, 不把命中的 id 全撈出來
		pattern := "%" + escapeLike(term) + "%"
		q = q.Where(`EXISTS (SELECT 1 FROM memberships s JOIN accounts a ON a.id = s.account_id
WHERE s.conversation_id = c.id AND s.status = ? AND a.status <> ?
AND (a.first_name ILIKE ? OR a.last_name ILIKE ? OR a.username ILIKE ? OR a.email ILIKE ?))`,
			domain.StatusActive, int(accountdomain.AccountStatusDelete), pattern, pattern, pattern, pattern)
	}
	q = q.Group("c.id, mb.id")

	var total int64
	if err := db.Table("(?) AS hits", q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}
	if total == 0 {
		return []domain.ConversationRow{}, 0, nil
	}

	var hits []listHit
	if err := q.Order("last_activity DESC, c.id").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Scan(&hits).Error; err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	if len(hits) == 0 {
		return []domain.ConversationRow{}, total, nil
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ConversationID)
	}
	var convs []domain.Conversation
	if err := db.Preload("Memberships", "status = ?", domain.StatusActive).
		Where("id IN ?", ids).
		Find(&convs).Error; err != nil {
		return nil, 0, fmt.Errorf("load conversations: %w", err)
	}
	byID := make(map[uuid.UUID]domain.Conversation, len(convs))
	for _, c := range convs {
		byID[c.ID] = c
	}

	rows := make([]domain.ConversationRow, 0, len(hits))
	for _, h := range hits {
		conv, ok := byID[h.ConversationID]
		if !ok {
			continue
		}
		m := conv.MembershipOf(accountID)
		if m == nil {
			continue
		}
		rows = append(rows, domain.ConversationRow{Conversation: conv, Membership: *m, LastActivity: h.LastActivity})
	}
	return rows, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
