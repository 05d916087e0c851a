package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	accountdomain "chat_delivery_service/internal/account/domain"
	"chat_delivery_service/internal/chat/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// memoryDB in-memory ConversationRepository + MessageRepository for scenario tests
type memoryDB struct {
	mu    sync.Mutex
	convs map[uuid.UUID]*domain.Conversation
	msgs  map[uuid.UUID]*domain.Message
	// accounts 給 search 用, accounts table 跟 chat 在同一個 database
	accounts *memoryAccounts
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		convs: map[uuid.UUID]*domain.Conversation{},
		msgs:  map[uuid.UUID]*domain.Message{},
	}
}

func cloneConv(c *domain.Conversation, activeOnly bool) *domain.Conversation {
	out := *c
	out.Memberships = nil
	for _, m := range c.Memberships {
		if activeOnly && !m.IsActive() {
			continue
		}
		out.Memberships = append(out.Memberships, m)
	}
	return &out
}

func cloneMsg(m *domain.Message) domain.Message {
	out := *m
	out.Recipients = append([]domain.MessageRecipient(nil), m.Recipients...)
	return out
}

func (db *memoryDB) Create(_ context.Context, conv *domain.Conversation) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, c := range db.convs {
		if c.IsActive() && c.MemberKey == conv.MemberKey {
			return fmt.Errorf("create conversation: %w", domain.ErrConversationExists)
		}
	}
	db.convs[conv.ID] = cloneConv(conv, false)
	return nil
}

func (db *memoryDB) FindByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.convs[id]
	if !ok || !c.IsActive() {
		return nil, domain.ErrConversationNotFound
	}
	return cloneConv(c, true), nil
}

func (db *memoryDB) FindByMemberKey(_ context.Context, key string) (*domain.Conversation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, c := range db.convs {
		if c.IsActive() && c.MemberKey == key {
			return cloneConv(c, true), nil
		}
	}
	return nil, nil
}

func (db *memoryDB) membership(id uuid.UUID) *domain.Membership {
	for _, c := range db.convs {
		for i := range c.Memberships {
			if c.Memberships[i].ID == id && c.Memberships[i].IsActive() {
				return &c.Memberships[i]
			}
		}
	}
	return nil
}

func (db *memoryDB) SetArchived(_ context.Context, membershipID uuid.UUID, archived bool, actor uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	m := db.membership(membershipID)
	if m == nil {
		return domain.ErrPersistenceFailed
	}
	now := time.Now().UTC()
	m.IsArchived = archived
	m.ModifiedAt = &now
	m.ModifiedBy = &actor
	return nil
}

// visible active messages of a membership, newest first
func (db *memoryDB) visible(membershipID uuid.UUID) []*domain.Message {
	out := make([]*domain.Message, 0)
	for _, m := range db.msgs {
		for _, r := range m.Recipients {
			if r.MembershipID == membershipID && r.IsActive() {
				out = append(out, m)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (db *memoryDB) ListForMember(_ context.Context, accountID uuid.UUID, filter domain.ConversationFilter) ([]domain.ConversationRow, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows := make([]domain.ConversationRow, 0)
	for _, c := range db.convs {
		if !c.IsActive() {
			continue
		}
		m := c.MembershipOf(accountID)
		if m == nil {
			continue
		}
		if filter.Archived != nil && m.IsArchived != *filter.Archived {
			continue
		}
		msgs := db.visible(m.ID)
		if len(msgs) == 0 {
			continue
		}
		if filter.Search != "" && !lo.SomeBy(c.MemberIDs(), func(id uuid.UUID) bool { return db.accounts.matches(id, filter.Search) }) {
			continue
		}
		last := msgs[0].CreatedAt
		rows = append(rows, domain.ConversationRow{Conversation: *cloneConv(c, true), Membership: *m, LastActivity: &last})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LastActivity.After(*rows[j].LastActivity) })

	total := int64(len(rows))
	start := lo.Min([]int{filter.Offset(), len(rows)})
	end := lo.Min([]int{start + filter.PageSize, len(rows)})
	return rows[start:end], total, nil
}

func (db *memoryDB) Save(_ context.Context, msg *domain.Message, unarchive []uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored := cloneMsg(msg)
	db.msgs[msg.ID] = &stored
	for _, id := range unarchive {
		if m := db.membership(id); m != nil {
			m.IsArchived = false
		}
	}
	return nil
}

func (db *memoryDB) ListForMembership(_ context.Context, membershipID uuid.UUID, page domain.PageRequest) ([]domain.Message, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	all := db.visible(membershipID)
	start := lo.Min([]int{page.Offset(), len(all)})
	end := lo.Min([]int{start + page.PageSize, len(all)})
	out := make([]domain.Message, 0, end-start)
	for _, m := range all[start:end] {
		out = append(out, cloneMsg(m))
	}
	return out, int64(len(all)), nil
}

// updateRecipients apply fn to every active row matching, returns rows changed
func (db *memoryDB) updateRecipients(match func(r *domain.MessageRecipient) bool, fn func(r *domain.MessageRecipient)) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	var n int64
	for _, m := range db.msgs {
		for i := range m.Recipients {
			r := &m.Recipients[i]
			if r.IsActive() && match(r) {
				fn(r)
				n++
			}
		}
	}
	return n
}

func (db *memoryDB) MarkRead(_ context.Context, recipientIDs []uuid.UUID, at time.Time) (int64, error) {
	return db.updateRecipients(func(r *domain.MessageRecipient) bool {
		return !r.IsRead && lo.Contains(recipientIDs, r.ID)
	}, func(r *domain.MessageRecipient) { r.MarkRead(at) }), nil
}

func (db *memoryDB) MarkAllRead(_ context.Context, membershipID uuid.UUID, at time.Time) (int64, error) {
	return db.updateRecipients(func(r *domain.MessageRecipient) bool {
		return !r.IsRead && r.MembershipID == membershipID
	}, func(r *domain.MessageRecipient) { r.MarkRead(at) }), nil
}

func (db *memoryDB) SoftDeleteForMembership(_ context.Context, membershipID, actor uuid.UUID, at time.Time) (int64, error) {
	return db.updateRecipients(func(r *domain.MessageRecipient) bool {
		return r.MembershipID == membershipID
	}, func(r *domain.MessageRecipient) {
		r.Status, r.DeletedAt, r.DeletedBy = domain.StatusDeleted, &at, &actor
	}), nil
}

func (db *memoryDB) SoftDeleteOne(_ context.Context, membershipID, messageID, actor uuid.UUID, at time.Time) (int64, error) {
	return db.updateRecipients(func(r *domain.MessageRecipient) bool {
		return r.MembershipID == membershipID && r.MessageID == messageID
	}, func(r *domain.MessageRecipient) {
		r.Status, r.DeletedAt, r.DeletedBy = domain.StatusDeleted, &at, &actor
	}), nil
}

func (db *memoryDB) SetReaction(_ context.Context, membershipID, messageID uuid.UUID, reaction *domain.Reaction, actor uuid.UUID, at time.Time) (int64, error) {
	return db.updateRecipients(func(r *domain.MessageRecipient) bool {
		return r.MembershipID == membershipID && r.MessageID == messageID
	}, func(r *domain.MessageRecipient) {
		r.Reaction, r.ModifiedAt, r.ModifiedBy = reaction, &at, &actor
	}), nil
}

func (db *memoryDB) UnreadCounts(_ context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := map[uuid.UUID]int64{}
	for _, m := range db.msgs {
		for _, r := range m.Recipients {
			if r.IsActive() && !r.IsRead && lo.Contains(membershipIDs, r.MembershipID) {
				out[r.MembershipID]++
			}
		}
	}
	return out, nil
}

func (db *memoryDB) Latest(_ context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]domain.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := map[uuid.UUID]domain.Message{}
	for _, id := range membershipIDs {
		if msgs := db.visible(id); len(msgs) > 0 {
			out[id] = cloneMsg(msgs[0])
		}
	}
	return out, nil
}

// recipientRows every row of a message, for assertions
func (db *memoryDB) recipientRows(messageID uuid.UUID) []domain.MessageRecipient {
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.msgs[messageID]
	if !ok {
		return nil
	}
	return append([]domain.MessageRecipient(nil), m.Recipients...)
}

// memoryAccounts in-memory AccountStore
type memoryAccounts struct {
	byID map[uuid.UUID]accountdomain.Account
}

func newMemoryAccounts(accounts ...accountdomain.Account) *memoryAccounts {
	return &memoryAccounts{byID: lo.KeyBy(accounts, func(a accountdomain.Account) uuid.UUID { return a.ID })}
}

func (s *memoryAccounts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]accountdomain.Account, error) {
	out := make([]accountdomain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memoryAccounts) ActiveIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return lo.Filter(ids, func(id uuid.UUID, _ int) bool {
		a, ok := s.byID[id]
		return ok && !a.IsDeleted()
	}), nil
}

// matches non-deleted account whose name, username or email contains term
func (s *memoryAccounts) matches(id uuid.UUID, term string) bool {
	if s == nil {
		return false
	}
	a, ok := s.byID[id]
	if !ok || a.IsDeleted() {
		return false
	}
	term = strings.ToLower(term)
	return lo.SomeBy([]string{a.FirstName, a.LastName, a.Username, a.Email}, func(f string) bool {
		return strings.Contains(strings.ToLower(f), term)
	})
}
