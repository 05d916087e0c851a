package app

import (
	"context"
	"errors"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/repository"
	"chat_delivery_service/pkg/cache"
	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendMessageUseCase 負責處理聊天訊息 (dispatch, delete for me, reaction)
type SendMessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	cache    cache.Store
	fanout   Fanout
	present  presenter
	now      Clock
}

// NewSendMessageUseCase init create message use case
func NewSendMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	store cache.Store,
	fanout Fanout,
	signer repository.AttachmentSigner,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		cache:    store,
		fanout:   fanout,
		present:  presenter{signer: signer},
		now:      utcNow,
	}
}

// Execute send message
// 寫入完成後才推播; client 中途斷線不影響寫入
func (uc *SendMessageUseCase) Execute(ctx context.Context, caller, conversationID uuid.UUID, in domain.NewMessage) (domain.MessageModel, error) {
	if caller == uuid.Nil {
		return domain.MessageModel{}, domain.ErrUnauthorized
	}
	if err := validate.Struct(in); err != nil {
		return domain.MessageModel{}, invalidInput(err)
	}
	ctx = context.WithoutCancel(ctx)

	// 1. 檢查房間與成員
	conv, membership, err := loadMembership(ctx, uc.convRepo, caller, conversationID)
	if err != nil {
		return domain.MessageModel{}, err
	}
	if conv.IsRestricted && !membership.IsOwner {
		return domain.MessageModel{}, domain.ErrRestricted
	}

	// 2. 建立訊息與每個成員的 recipient row
	now := uc.now()
	msg := &domain.Message{
		ID:              uuid.New(),
		Body:            in.Body,
		AttachmentRef:   in.AttachmentRef,
		ParentMessageID: in.ParentMessageID,
		Audit:           domain.NewAudit(caller, now),
	}
	members := conv.ActiveMemberships()
	unarchive := make([]uuid.UUID, 0)
	for _, m := range members {
		r := domain.MessageRecipient{
			ID:           uuid.New(),
			MessageID:    msg.ID,
			MembershipID: m.ID,
			AccountID:    m.AccountID,
			Audit:        domain.NewAudit(caller, now),
		}
		if m.AccountID == caller {
			r.MarkRead(now)
		}
		msg.Recipients = append(msg.Recipients, r)
		if m.IsArchived {
			unarchive = append(unarchive, m.ID)
		}
	}

	// 3. 單一 transaction
	if err := uc.msgRepo.Save(ctx, msg, unarchive); err != nil {
		logger.Log.Error("save message failed",
			zap.String("conversation_id", conversationID.String()),
			zap.String("sender", caller.String()),
			zap.Error(err),
		)
		return domain.MessageModel{}, err
	}
	metrics.MessagesDispatched.Inc()

	// 4. cache
	memberIDs := conv.MemberIDs()
	invalidateMembers(ctx, uc.cache, conversationID, memberIDs)

	// 5. fan-out, best effort
	uc.fanout.Broadcast(ctx, uc.pushes(ctx, conv, msg), &domain.DeliveryEvent{
		MessageID:      msg.ID,
		ConversationID: conversationID,
		SenderID:       caller,
		RecipientIDs:   memberIDs,
		OccurredAt:     now,
	})

	return uc.present.message(ctx, conversationID, *msg, caller), nil
}

// pushes one shared message event for every member, then one summary per member
func (uc *SendMessageUseCase) pushes(ctx context.Context, conv *domain.Conversation, msg *domain.Message) []domain.Push {
	members := conv.ActiveMemberships()
	memberIDs := conv.MemberIDs()

	out := make([]domain.Push, 0, len(members)+1)
	out = append(out, domain.Push{
		AccountIDs: memberIDs,
		Event: domain.WSResponse{
			Action:  domain.EventMessage,
			Success: true,
			Payload: uc.present.message(ctx, conv.ID, *msg, uuid.Nil),
		},
	})

	membershipIDs := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		membershipIDs = append(membershipIDs, m.ID)
	}
	unread, err := uc.msgRepo.UnreadCounts(ctx, membershipIDs)
	if err != nil {
		// summary 以訊息為主, 未讀數拿不到就不推 summary
		logger.Log.Warn("summary unread counts failed", zap.String("conversation_id", conv.ID.String()), zap.Error(err))
		return out
	}

	for _, m := range members {
		latest := uc.present.message(ctx, conv.ID, *msg, m.AccountID)
		out = append(out, domain.Push{
			AccountIDs: []uuid.UUID{m.AccountID},
			Event: domain.WSResponse{
				Action:  domain.EventConversationSummary,
				Success: true,
				Payload: domain.ConversationSummary{
					ConversationID: conv.ID,
					UnreadCount:    unread[m.ID],
					IsArchived:     false,
					LatestMessage:  &latest,
				},
			},
		})
	}
	return out
}

// DeleteForMe soft-delete caller's row of one message
func (uc *SendMessageUseCase) DeleteForMe(ctx context.Context, caller, conversationID, messageID uuid.UUID) error {
	if caller == uuid.Nil {
		return domain.ErrUnauthorized
	}
	ctx = context.WithoutCancel(ctx)
	_, membership, err := loadMembership(ctx, uc.convRepo, caller, conversationID)
	if err != nil {
		return err
	}
	n, err := uc.msgRepo.SoftDeleteOne(ctx, membership.ID, messageID, caller, uc.now())
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMessageNotFound
	}
	invalidateMembers(ctx, uc.cache, conversationID, []uuid.UUID{caller})
	return nil
}

// React set caller's reaction on a message, empty reaction clears it
func (uc *SendMessageUseCase) React(ctx context.Context, caller, conversationID, messageID uuid.UUID, reaction domain.Reaction) error {
	if caller == uuid.Nil {
		return domain.ErrUnauthorized
	}
	var value *domain.Reaction
	if reaction != "" {
		if !reaction.Valid() {
			return invalidInput(errors.New("unknown reaction " + string(reaction)))
		}
		value = &reaction
	}

	ctx = context.WithoutCancel(ctx)
	conv, membership, err := loadMembership(ctx, uc.convRepo, caller, conversationID)
	if err != nil {
		return err
	}
	n, err := uc.msgRepo.SetReaction(ctx, membership.ID, messageID, value, caller, uc.now())
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMessageNotFound
	}
	invalidateMembers(ctx, uc.cache, conversationID, conv.MemberIDs())
	return nil
}
