package app

import (
	"context"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/repository"
	"chat_delivery_service/pkg/cache"
	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReadReceiptUseCase message page fetch (opportunistic read) and bulk mark-read
type ReadReceiptUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	cache    cache.Store
	present  presenter
	opts     Options
	now      Clock
}

// NewReadReceiptUseCase create ReadReceiptUseCase
func NewReadReceiptUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	store cache.Store,
	signer repository.AttachmentSigner,
	opts Options,
) *ReadReceiptUseCase {
	return &ReadReceiptUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		cache:    store,
		present:  presenter{signer: signer},
		opts:     opts,
		now:      utcNow,
	}
}

// ListMessages one page of messages, newest first.
// caller 未讀的 row 會在同一次操作標記為已讀, 更新筆數不符時整個 fetch 失敗
func (uc *ReadReceiptUseCase) ListMessages(ctx context.Context, caller, conversationID uuid.UUID, page domain.PageRequest) (domain.Page[domain.MessageModel], error) {
	if caller == uuid.Nil {
		return domain.Page[domain.MessageModel]{}, domain.ErrUnauthorized
	}
	page = page.Normalize(uc.opts.MessageMinPageSize, uc.opts.MessageMaxPageSize)

	conv, membership, err := loadMembership(ctx, uc.convRepo, caller, conversationID)
	if err != nil {
		return domain.Page[domain.MessageModel]{}, err
	}

	msgs, total, err := uc.msgRepo.ListForMembership(ctx, membership.ID, page)
	if err != nil {
		return domain.Page[domain.MessageModel]{}, err
	}

	// 未讀的 row
	now := uc.now()
	unread := make([]uuid.UUID, 0)
	for i := range msgs {
		if r := msgs[i].RecipientOf(caller); r != nil && !r.IsRead {
			unread = append(unread, r.ID)
		}
	}

	if len(unread) > 0 {
		n, err := uc.msgRepo.MarkRead(context.WithoutCancel(ctx), unread, now)
		if err != nil {
			return domain.Page[domain.MessageModel]{}, err
		}
		if n != int64(len(unread)) {
			logger.Log.Warn("read receipts partially updated",
				zap.String("conversation_id", conversationID.String()),
				zap.Int("expected", len(unread)),
				zap.Int64("updated", n),
			)
			return domain.Page[domain.MessageModel]{}, domain.ErrPartialReadUpdate
		}
		metrics.ReadMarked.WithLabelValues("fetch").Add(float64(n))
		for i := range msgs {
			if r := msgs[i].RecipientOf(caller); r != nil {
				r.MarkRead(now)
			}
		}
		// unread count 與 readBy 都變了
		invalidateMembers(ctx, uc.cache, conversationID, conv.MemberIDs())
	}

	data := make([]domain.MessageModel, 0, len(msgs))
	for _, m := range msgs {
		data = append(data, uc.present.message(ctx, conversationID, m, caller))
	}
	return domain.NewPage(data, page, total), nil
}

// MarkConversationRead flip every unread row of caller in the conversation, idempotent
func (uc *ReadReceiptUseCase) MarkConversationRead(ctx context.Context, caller, conversationID uuid.UUID) (int64, error) {
	if caller == uuid.Nil {
		return 0, domain.ErrUnauthorized
	}
	ctx = context.WithoutCancel(ctx)
	conv, membership, err := loadMembership(ctx, uc.convRepo, caller, conversationID)
	if err != nil {
		return 0, err
	}
	n, err := uc.msgRepo.MarkAllRead(ctx, membership.ID, uc.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ReadMarked.WithLabelValues("bulk").Add(float64(n))
		invalidateMembers(ctx, uc.cache, conversationID, conv.MemberIDs())
	}
	return n, nil
}
