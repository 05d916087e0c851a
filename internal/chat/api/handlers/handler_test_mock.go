package handlers

import (
	"context"

	"chat_delivery_service/internal/chat/app"
	"chat_delivery_service/internal/chat/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockConversationService Mock ConversationService
type MockConversationService struct {
	mock.Mock
}

// Create moke create
func (m *MockConversationService) Create(ctx context.Context, caller uuid.UUID, in app.CreateConversation) (uuid.UUID, error) {
	args := m.Called(ctx, caller, in)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// Get moke get
func (m *MockConversationService) Get(ctx context.Context, caller, id uuid.UUID) (domain.ConversationModel, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(domain.ConversationModel), args.Error(1)
}

// List moke list
func (m *MockConversationService) List(ctx context.Context, caller uuid.UUID, filter domain.ConversationFilter) (domain.Page[domain.ConversationModel], error) {
	args := m.Called(ctx, caller, filter)
	return args.Get(0).(domain.Page[domain.ConversationModel]), args.Error(1)
}

// Archive moke archive
func (m *MockConversationService) Archive(ctx context.Context, caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

// Unarchive moke unarchive
func (m *MockConversationService) Unarchive(ctx context.Context, caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

// Delete moke delete
func (m *MockConversationService) Delete(ctx context.Context, caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

// MockMessageService Mock MessageService
type MockMessageService struct {
	mock.Mock
}

// Execute moke send
func (m *MockMessageService) Execute(ctx context.Context, caller, conversationID uuid.UUID, in domain.NewMessage) (domain.MessageModel, error) {
	args := m.Called(ctx, caller, conversationID, in)
	return args.Get(0).(domain.MessageModel), args.Error(1)
}

// DeleteForMe moke delete
func (m *MockMessageService) DeleteForMe(ctx context.Context, caller, conversationID, messageID uuid.UUID) error {
	return m.Called(ctx, caller, conversationID, messageID).Error(0)
}

// React moke react
func (m *MockMessageService) React(ctx context.Context, caller, conversationID, messageID uuid.UUID, reaction domain.Reaction) error {
	return m.Called(ctx, caller, conversationID, messageID, reaction).Error(0)
}

// MockReadService Mock ReadService
type MockReadService struct {
	mock.Mock
}

// ListMessages moke list messages
func (m *MockReadService) ListMessages(ctx context.Context, caller, conversationID uuid.UUID, page domain.PageRequest) (domain.Page[domain.MessageModel], error) {
	args := m.Called(ctx, caller, conversationID, page)
	return args.Get(0).(domain.Page[domain.MessageModel]), args.Error(1)
}

// MarkConversationRead moke bulk read
func (m *MockReadService) MarkConversationRead(ctx context.Context, caller, conversationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, caller, conversationID)
	return args.Get(0).(int64), args.Error(1)
}
