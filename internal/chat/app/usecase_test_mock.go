package app

import (
	"context"
	"sync"
	"time"

	accountdomain "chat_delivery_service/internal/account/domain"
	"chat_delivery_service/internal/chat/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Create moke create conversation
func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindByID moke find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByMemberKey moke find conversation by member set
func (m *MockConversationRepository) FindByMemberKey(ctx context.Context, key string) (*domain.Conversation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// SetArchived moke archive
func (m *MockConversationRepository) SetArchived(ctx context.Context, membershipID uuid.UUID, archived bool, actor uuid.UUID) error {
	args := m.Called(ctx, membershipID, archived, actor)
	return args.Error(0)
}

// ListForMember moke list
func (m *MockConversationRepository) ListForMember(ctx context.Context, accountID uuid.UUID, filter domain.ConversationFilter) ([]domain.ConversationRow, int64, error) {
	args := m.Called(ctx, accountID, filter)
	rows, _ := args.Get(0).([]domain.ConversationRow)
	return rows, args.Get(1).(int64), args.Error(2)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Save moke save message
func (m *MockMessageRepository) Save(ctx context.Context, msg *domain.Message, unarchive []uuid.UUID) error {
	args := m.Called(ctx, msg, unarchive)
	return args.Error(0)
}

// ListForMembership moke list messages
func (m *MockMessageRepository) ListForMembership(ctx context.Context, membershipID uuid.UUID, page domain.PageRequest) ([]domain.Message, int64, error) {
	args := m.Called(ctx, membershipID, page)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Get(1).(int64), args.Error(2)
}

// MarkRead moke mark read
func (m *MockMessageRepository) MarkRead(ctx context.Context, recipientIDs []uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, recipientIDs, at)
	return args.Get(0).(int64), args.Error(1)
}

// MarkAllRead moke bulk mark read
func (m *MockMessageRepository) MarkAllRead(ctx context.Context, membershipID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, membershipID, at)
	return args.Get(0).(int64), args.Error(1)
}

// SoftDeleteForMembership moke delete conversation view
func (m *MockMessageRepository) SoftDeleteForMembership(ctx context.Context, membershipID, actor uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, membershipID, actor, at)
	return args.Get(0).(int64), args.Error(1)
}

// SoftDeleteOne moke delete message for me
func (m *MockMessageRepository) SoftDeleteOne(ctx context.Context, membershipID, messageID, actor uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, membershipID, messageID, actor, at)
	return args.Get(0).(int64), args.Error(1)
}

// SetReaction moke reaction
func (m *MockMessageRepository) SetReaction(ctx context.Context, membershipID, messageID uuid.UUID, reaction *domain.Reaction, actor uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, membershipID, messageID, reaction, actor, at)
	return args.Get(0).(int64), args.Error(1)
}

// UnreadCounts moke unread counts
func (m *MockMessageRepository) UnreadCounts(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, membershipIDs)
	counts, _ := args.Get(0).(map[uuid.UUID]int64)
	return counts, args.Error(1)
}

// Latest moke latest message per membership
func (m *MockMessageRepository) Latest(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID]domain.Message, error) {
	args := m.Called(ctx, membershipIDs)
	latest, _ := args.Get(0).(map[uuid.UUID]domain.Message)
	return latest, args.Error(1)
}

// MockAccountStore Mock AccountStore
type MockAccountStore struct {
	mock.Mock
}

// FindByIDs moke profiles
func (m *MockAccountStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]accountdomain.Account, error) {
	args := m.Called(ctx, ids)
	accounts, _ := args.Get(0).([]accountdomain.Account)
	return accounts, args.Error(1)
}

// ActiveIDs moke active ids
func (m *MockAccountStore) ActiveIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]uuid.UUID)
	return out, args.Error(1)
}

// MockRelay Mock Relay
type MockRelay struct {
	mock.Mock
}

// Publish moke relay publish
func (m *MockRelay) Publish(ctx context.Context, push domain.Push) error {
	args := m.Called(ctx, push)
	return args.Error(0)
}

// MockEventPublisher Mock notification channel
type MockEventPublisher struct {
	mock.Mock
}

// Publish moke publish
func (m *MockEventPublisher) Publish(ctx context.Context, event domain.DeliveryEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Driver name
func (m *MockEventPublisher) Driver() string { return "mock" }

// recordingFanout keeps what the usecases broadcast
type recordingFanout struct {
	mu     sync.Mutex
	pushes []domain.Push
	events []domain.DeliveryEvent
}

func (f *recordingFanout) Broadcast(_ context.Context, pushes []domain.Push, event *domain.DeliveryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushes...)
	if event != nil {
		f.events = append(f.events, *event)
	}
}

// fakeConn live connection double, blocks when block is set
type fakeConn struct {
	id    string
	block bool
	mu    sync.Mutex
	got   [][]byte
}

func newFakeConn() *fakeConn { return &fakeConn{id: uuid.NewString()} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(ctx context.Context, payload []byte) error {
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, payload)
	return nil
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.got...)
}

// memoryStore in-memory cache.Store
type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore { return &memoryStore{data: map[string][]byte{}} }

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.data, k)
		}
	}
	return nil
}

func (s *memoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
