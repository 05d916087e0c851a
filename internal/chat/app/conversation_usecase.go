package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/repository"
	"chat_delivery_service/pkg/cache"
	"chat_delivery_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// CreateConversation create input
type CreateConversation struct {
	MemberIDs    []uuid.UUID `json:"memberIds" validate:"required,min=1,dive,required"`
	Name         *string     `json:"name,omitempty" validate:"omitempty,max=128"`
	Image        *string     `json:"image,omitempty" validate:"omitempty,max=512"`
	IsRestricted bool        `json:"isRestricted"`
}

// ConversationUseCase create / get / list / archive / delete conversations
type ConversationUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	accounts AccountStore
	cache    cache.Store
	present  presenter
	opts     Options
	now      Clock
}

// NewConversationUseCase create ConversationUseCase
func NewConversationUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	accounts AccountStore,
	store cache.Store,
	signer repository.AttachmentSigner,
	opts Options,
) *ConversationUseCase {
	return &ConversationUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		accounts: accounts,
		cache:    store,
		present:  presenter{signer: signer},
		opts:     opts,
		now:      utcNow,
	}
}

// Create 建立 conversation, 相同成員組合已存在時回傳 *domain.ConflictError (帶既有 id)
func (uc *ConversationUseCase) Create(ctx context.Context, caller uuid.UUID, in CreateConversation) (uuid.UUID, error) {
	if caller == uuid.Nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	if err := validate.Struct(in); err != nil {
		return uuid.Nil, invalidInput(err)
	}

	// 1. caller ∪ targets
	requested := lo.Uniq(append([]uuid.UUID{caller}, in.MemberIDs...))

	// 2. 只留下有效帳號
	valid, err := uc.accounts.ActiveIDs(ctx, requested)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve members: %w", err)
	}
	valid = lo.Uniq(valid)
	if len(valid) < 2 || !lo.Contains(valid, caller) {
		return uuid.Nil, domain.ErrInvalidMembers
	}

	// 3. 人數上限
	if uc.opts.MaxMembers > 0 && len(valid) > uc.opts.MaxMembers {
		return uuid.Nil, domain.ErrTooManyMembers
	}

	// 4. exact member set 已存在
	key := domain.MemberKey(valid)
	existing, err := uc.convRepo.FindByMemberKey(ctx, key)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return uuid.Nil, &domain.ConflictError{ConversationID: existing.ID}
	}

	// 5. 建立
	now := uc.now()
	conv := &domain.Conversation{
		ID:           uuid.New(),
		Name:         in.Name,
		Image:        in.Image,
		IsRestricted: in.IsRestricted,
		MemberKey:    key,
		Audit:        domain.NewAudit(caller, now),
	}
	for _, id := range valid {
		conv.Memberships = append(conv.Memberships, domain.Membership{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			AccountID:      id,
			IsOwner:        id == caller,
			Audit:          domain.NewAudit(caller, now),
		})
	}

	if err := uc.convRepo.Create(ctx, conv); err != nil {
		if !errors.Is(err, domain.ErrConversationExists) {
			return uuid.Nil, err
		}
		// 同時建立輸掉的一方, 回傳贏家的 id
		winner, findErr := uc.convRepo.FindByMemberKey(ctx, key)
		if findErr != nil || winner == nil {
			return uuid.Nil, err
		}
		return uuid.Nil, &domain.ConflictError{ConversationID: winner.ID}
	}

	invalidateLists(ctx, uc.cache, valid)
	logger.Log.Info("conversation created",
		zap.String("conversation_id", conv.ID.String()),
		zap.String("owner", caller.String()),
		zap.Int("members", len(valid)),
	)
	return conv.ID, nil
}

// Get conversation detail for caller
func (uc *ConversationUseCase) Get(ctx context.Context, caller, id uuid.UUID) (domain.ConversationModel, error) {
	if caller == uuid.Nil {
		return domain.ConversationModel{}, domain.ErrUnauthorized
	}
	model, err := cache.GetOrSet(ctx, uc.cache, detailKey(caller, id), uc.opts.DetailTTL, func(ctx context.Context) (domain.ConversationModel, error) {
		conv, membership, err := loadMembership(ctx, uc.convRepo, caller, id)
		if err != nil {
			return domain.ConversationModel{}, err
		}

		accounts, err := uc.accounts.FindByIDs(ctx, conv.MemberIDs())
		if err != nil {
			return domain.ConversationModel{}, fmt.Errorf("load members: %w", err)
		}
		unread, latest, err := uc.stats(ctx, []uuid.UUID{membership.ID})
		if err != nil {
			return domain.ConversationModel{}, err
		}

		var latestModel *domain.MessageModel
		if m, ok := latest[membership.ID]; ok {
			mm := uc.present.unsignedMessage(conv.ID, m, caller)
			latestModel = &mm
		}
		return uc.present.conversation(conv, membership, profileIndex(accounts), unread[membership.ID], latestModel, true), nil
	})
	if err != nil {
		return domain.ConversationModel{}, err
	}
	// presigned url 會過期, 不進 cache
	uc.present.sign(ctx, model.LatestMessage)
	return model, nil
}

// List conversations of caller, latest activity first
func (uc *ConversationUseCase) List(ctx context.Context, caller uuid.UUID, filter domain.ConversationFilter) (domain.Page[domain.ConversationModel], error) {
	if caller == uuid.Nil {
		return domain.Page[domain.ConversationModel]{}, domain.ErrUnauthorized
	}
	filter.PageRequest = filter.PageRequest.Normalize(uc.opts.MinPageSize, uc.opts.MaxPageSize)
	filter.Search = strings.TrimSpace(filter.Search)

	page, err := cache.GetOrSet(ctx, uc.cache, listKey(caller, filter), uc.opts.ListTTL, func(ctx context.Context) (domain.Page[domain.ConversationModel], error) {
		rows, total, err := uc.convRepo.ListForMember(ctx, caller, filter)
		if err != nil {
			return domain.Page[domain.ConversationModel]{}, err
		}
		if len(rows) == 0 {
			return domain.NewPage([]domain.ConversationModel{}, filter.PageRequest, total), nil
		}

		membershipIDs := lo.Map(rows, func(r domain.ConversationRow, _ int) uuid.UUID { return r.Membership.ID })
		unread, latest, err := uc.stats(ctx, membershipIDs)
		if err != nil {
			return domain.Page[domain.ConversationModel]{}, err
		}

		memberIDs := lo.Uniq(lo.FlatMap(rows, func(r domain.ConversationRow, _ int) []uuid.UUID { return r.Conversation.MemberIDs() }))
		accounts, err := uc.accounts.FindByIDs(ctx, memberIDs)
		if err != nil {
			return domain.Page[domain.ConversationModel]{}, fmt.Errorf("load members: %w", err)
		}
		profiles := profileIndex(accounts)

		data := make([]domain.ConversationModel, 0, len(rows))
		for i := range rows {
			row := &rows[i]
			var latestModel *domain.MessageModel
			if m, ok := latest[row.Membership.ID]; ok {
				mm := uc.present.unsignedMessage(row.Conversation.ID, m, caller)
				latestModel = &mm
			}
			data = append(data, uc.present.conversation(&row.Conversation, &row.Membership, profiles, unread[row.Membership.ID], latestModel, false))
		}
		return domain.NewPage(data, filter.PageRequest, total), nil
	})
	if err != nil {
		return domain.Page[domain.ConversationModel]{}, err
	}
	for i := range page.Data {
		uc.present.sign(ctx, page.Data[i].LatestMessage)
	}
	return page, nil
}

// Archive hide the conversation from caller's list until a new message arrives, idempotent
func (uc *ConversationUseCase) Archive(ctx context.Context, caller, id uuid.UUID) error {
	return uc.setArchived(ctx, caller, id, true)
}

// Unarchive idempotent
func (uc *ConversationUseCase) Unarchive(ctx context.Context, caller, id uuid.UUID) error {
	return uc.setArchived(ctx, caller, id, false)
}

func (uc *ConversationUseCase) setArchived(ctx context.Context, caller, id uuid.UUID, archived bool) error {
	if caller == uuid.Nil {
		return domain.ErrUnauthorized
	}
	_, membership, err := loadMembership(ctx, uc.convRepo, caller, id)
	if err != nil {
		return err
	}
	if membership.IsArchived == archived {
		return nil
	}
	if err := uc.convRepo.SetArchived(context.WithoutCancel(ctx), membership.ID, archived, caller); err != nil {
		return err
	}
	invalidateMembers(ctx, uc.cache, id, []uuid.UUID{caller})
	return nil
}

// Delete soft-delete caller's view of the conversation, other members are untouched
func (uc *ConversationUseCase) Delete(ctx context.Context, caller, id uuid.UUID) error {
	if caller == uuid.Nil {
		return domain.ErrUnauthorized
	}
	_, membership, err := loadMembership(ctx, uc.convRepo, caller, id)
	if err != nil {
		return err
	}
	n, err := uc.msgRepo.SoftDeleteForMembership(context.WithoutCancel(ctx), membership.ID, caller, uc.now())
	if err != nil {
		return err
	}
	invalidateMembers(ctx, uc.cache, id, []uuid.UUID{caller})
	logger.Log.Debug("conversation view deleted",
		zap.String("conversation_id", id.String()),
		zap.String("account_id", caller.String()),
		zap.Int64("rows", n),
	)
	return nil
}

func (uc *ConversationUseCase) stats(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]int64, map[uuid.UUID]domain.Message, error) {
	unread, err := uc.msgRepo.UnreadCounts(ctx, membershipIDs)
	if err != nil {
		return nil, nil, err
	}
	latest, err := uc.msgRepo.Latest(ctx, membershipIDs)
	if err != nil {
		return nil, nil, err
	}
	return unread, latest, nil
}

// loadMembership active conversation + caller's active membership
func loadMembership(ctx context.Context, repo repository.ConversationRepository, caller, id uuid.UUID) (*domain.Conversation, *domain.Membership, error) {
	conv, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	membership := conv.MembershipOf(caller)
	if membership == nil {
		return nil, nil, domain.ErrNotMember
	}
	return conv, membership, nil
}
