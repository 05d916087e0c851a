package app

import (
	"context"
	"time"

	accountdomain "chat_delivery_service/internal/account/domain"
	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/hub"

	"github.com/google/uuid"
)

// AccountStore profile lookup, satisfied by the account repository
type AccountStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]accountdomain.Account, error)
	// ActiveIDs subset of ids that are not deleted
	ActiveIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

// Directory live connection lookup, satisfied by *hub.Registry
type Directory interface {
	ConnectionsFor(accountID uuid.UUID) []hub.Conn
	ConnectionsForMany(accountIDs []uuid.UUID) []hub.Conn
	Online(accountIDs []uuid.UUID) []uuid.UUID
}

// Relay cross-instance fan-out, satisfied by *repository.RedisPubSub
type Relay interface {
	Publish(ctx context.Context, push domain.Push) error
}

// Fanout what the usecases need from the Broadcaster
type Fanout interface {
	Broadcast(ctx context.Context, pushes []domain.Push, event *domain.DeliveryEvent)
}

// Options usecase tunables, filled from config.Chat
type Options struct {
	// MaxMembers 0 = unlimited
	MaxMembers         int
	MinPageSize        int
	MaxPageSize        int
	MessageMinPageSize int
	MessageMaxPageSize int
	DetailTTL          time.Duration
	ListTTL            time.Duration
}

// Clock now func, swapped in tests
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
