package app

import (
	"context"
	"sort"
	"strings"

	accountdomain "chat_delivery_service/internal/account/domain"
	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/repository"
	"chat_delivery_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// 群組沒有名稱時最多取幾個成員的名字
const maxNameParts = 5

// presenter hand-written projections entity -> api model
type presenter struct {
	signer repository.AttachmentSigner
}

func toProfile(a accountdomain.Account) domain.Profile {
	return domain.Profile{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Username:  a.Username,
		Image:     a.Image,
	}
}

func profileIndex(accounts []accountdomain.Account) map[uuid.UUID]domain.Profile {
	return lo.SliceToMap(accounts, func(a accountdomain.Account) (uuid.UUID, domain.Profile) {
		return a.ID, toProfile(a)
	})
}

// message project msg for viewer, uuid.Nil viewer gives the shared live-event shape
func (p presenter) message(ctx context.Context, conversationID uuid.UUID, msg domain.Message, viewer uuid.UUID) domain.MessageModel {
	out := p.unsignedMessage(conversationID, msg, viewer)
	p.sign(ctx, &out)
	return out
}

// sign 把 AttachmentURL 內的 attachment ref 換成簽名後的 url, 失敗時清空
func (p presenter) sign(ctx context.Context, m *domain.MessageModel) {
	if m == nil || m.AttachmentURL == nil {
		return
	}
	url, err := p.signer.Sign(ctx, *m.AttachmentURL)
	if err != nil {
		logger.Log.Warn("sign attachment failed", zap.String("message_id", m.ID.String()), zap.Error(err))
		m.AttachmentURL = nil
		return
	}
	m.AttachmentURL = &url
}

// unsignedMessage AttachmentURL 暫存未簽名的 ref, 可以放進 cache, 回傳前再 sign
func (p presenter) unsignedMessage(conversationID uuid.UUID, msg domain.Message, viewer uuid.UUID) domain.MessageModel {
	sender := msg.SenderID()
	deleted := !msg.IsActive()

	out := domain.MessageModel{
		ID:              msg.ID,
		ConversationID:  conversationID,
		SenderID:        sender,
		ParentMessageID: msg.ParentMessageID,
		IsPinned:        msg.IsPinned,
		IsModified:      msg.IsModified(),
		IsDeleted:       deleted,
		ReadBy:          []uuid.UUID{},
		CreatedAt:       msg.CreatedAt,
	}
	if !deleted {
		body := msg.Body
		out.Body = &body
		if msg.AttachmentRef != nil && *msg.AttachmentRef != "" {
			ref := *msg.AttachmentRef
			out.AttachmentURL = &ref
		}
	}

	for _, r := range msg.Recipients {
		if !r.IsActive() {
			continue
		}
		if r.AccountID == viewer {
			out.IsRead = r.IsRead
			out.Reaction = r.Reaction
			continue
		}
		if r.AccountID != sender && r.IsRead {
			out.ReadBy = append(out.ReadBy, r.AccountID)
		}
	}
	sort.Slice(out.ReadBy, func(i, j int) bool { return out.ReadBy[i].String() < out.ReadBy[j].String() })
	return out
}

// displayName explicit name, else the other member (1:1), else up to 5 first names ordered by username
func displayName(conv *domain.Conversation, caller uuid.UUID, profiles map[uuid.UUID]domain.Profile) string {
	if conv.Name != nil && strings.TrimSpace(*conv.Name) != "" {
		return *conv.Name
	}

	others := make([]domain.Profile, 0)
	for _, id := range conv.MemberIDs() {
		if id == caller {
			continue
		}
		if p, ok := profiles[id]; ok {
			others = append(others, p)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		if others[i].Username != others[j].Username {
			return others[i].Username < others[j].Username
		}
		return others[i].ID.String() < others[j].ID.String()
	})
	if len(others) > maxNameParts {
		others = others[:maxNameParts]
	}
	return strings.Join(lo.Map(others, func(p domain.Profile, _ int) string { return p.FirstName }), ", ")
}

func displayImage(conv *domain.Conversation, caller uuid.UUID, profiles map[uuid.UUID]domain.Profile) *string {
	if conv.Image != nil || conv.IsGroup() {
		return conv.Image
	}
	for _, id := range conv.MemberIDs() {
		if id != caller {
			return profiles[id].Image
		}
	}
	return nil
}

// conversation project conv for the member owning membership
func (p presenter) conversation(conv *domain.Conversation, membership *domain.Membership, profiles map[uuid.UUID]domain.Profile,
	unread int64, latest *domain.MessageModel, withMembers bool) domain.ConversationModel {
	caller := membership.AccountID
	out := domain.ConversationModel{
		ID:              conv.ID,
		Name:            displayName(conv, caller, profiles),
		Image:           displayImage(conv, caller, profiles),
		IsRestricted:    conv.IsRestricted,
		IsGroup:         conv.IsGroup(),
		IsArchived:      membership.IsArchived,
		IsOwner:         membership.IsOwner,
		NumberOfMembers: len(conv.ActiveMemberships()),
		UnreadCount:     unread,
		LatestMessage:   latest,
		CreatedAt:       conv.CreatedAt,
	}
	if withMembers {
		out.Members = make([]domain.Profile, 0, out.NumberOfMembers)
		for _, id := range conv.MemberIDs() {
			if pr, ok := profiles[id]; ok {
				out.Members = append(out.Members, pr)
			}
		}
		sort.Slice(out.Members, func(i, j int) bool { return out.Members[i].Username < out.Members[j].Username })
	}
	return out
}
