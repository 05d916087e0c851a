//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	accountdomain "chat_delivery_service/internal/account/domain"
	accountrepo "chat_delivery_service/internal/account/repository"
	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/pkg/database"
	"chat_delivery_service/pkg/logger"
	testtool "chat_delivery_service/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	testDB    *gorm.DB
	testRedis *redis.Client
)

// TestMain 啟動 postgres / redis 容器
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "chat_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start postgres container: %v", err)
	}

	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start redis container: %v", err)
	}

	port, _ := strconv.Atoi(pgPort)
	testDB, err = database.NewPGConnection(database.Connection{
		ConnectStr:    database.PostgresDSN(pgHost, port, "chat", "chat", "chat_test", "disable"),
		RetryCount:    5,
		RetryInterval: 2,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect postgres: %v", err)
	}
	if err := Migrate(testDB); err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}
	if err := testDB.Exec(accountrepo.Schema).Error; err != nil {
		log.Fatalf("❌ Failed to create accounts table: %v", err)
	}

	testRedis, err = database.NewRedisClient(database.RedisConnection{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort)})
	if err != nil {
		log.Fatalf("❌ Failed to connect redis: %v", err)
	}

	code := m.Run()

	_ = testRedis.Close()
	_ = pgContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	os.Exit(code)
}

func newTestConversation(owner uuid.UUID, others ...uuid.UUID) *domain.Conversation {
	now := time.Now().UTC()
	ids := append([]uuid.UUID{owner}, others...)
	conv := &domain.Conversation{
		ID:        uuid.New(),
		MemberKey: domain.MemberKey(ids),
		Audit:     domain.NewAudit(owner, now),
	}
	for _, id := range ids {
		conv.Memberships = append(conv.Memberships, domain.Membership{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			AccountID:      id,
			IsOwner:        id == owner,
			Audit:          domain.NewAudit(owner, now),
		})
	}
	return conv
}

func newTestMessage(conv *domain.Conversation, sender uuid.UUID, body string, at time.Time) *domain.Message {
	msg := &domain.Message{ID: uuid.New(), Body: body, Audit: domain.NewAudit(sender, at)}
	for _, m := range conv.Memberships {
		r := domain.MessageRecipient{
			ID:           uuid.New(),
			MessageID:    msg.ID,
			MembershipID: m.ID,
			AccountID:    m.AccountID,
			Audit:        domain.NewAudit(sender, at),
		}
		if m.AccountID == sender {
			r.MarkRead(at)
		}
		msg.Recipients = append(msg.Recipients, r)
	}
	return msg
}

func TestConversationRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB)
	a, b := uuid.New(), uuid.New()

	conv := newTestConversation(a, b)
	require.NoError(t, repo.Create(ctx, conv))

	got, err := repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Memberships, 2)
	assert.Equal(t, domain.MemberKey([]uuid.UUID{b, a}), domain.MemberKey(got.MemberIDs()))

	byKey, err := repo.FindByMemberKey(ctx, domain.MemberKey([]uuid.UUID{b, a}))
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, conv.ID, byKey.ID)

	// 相同成員組合: partial unique index 擋下
	err = repo.Create(ctx, newTestConversation(b, a))
	assert.ErrorIs(t, err, domain.ErrConversationExists)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)

	none, err := repo.FindByMemberKey(ctx, domain.MemberKey([]uuid.UUID{a, uuid.New()}))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMessageRepository_SendReadDelete(t *testing.T) {
	ctx := context.Background()
	convRepo := NewConversationRepository(testDB)
	msgRepo := NewMessageRepository(testDB)
	a, b := uuid.New(), uuid.New()

	conv := newTestConversation(a, b)
	require.NoError(t, convRepo.Create(ctx, conv))
	ma, mb := conv.MembershipOf(a), conv.MembershipOf(b)

	// a 封存後 b 發訊息 -> a 自動解除封存
	require.NoError(t, convRepo.SetArchived(ctx, ma.ID, true, a))

	now := time.Now().UTC()
	first := newTestMessage(conv, a, "hi", now.Add(-time.Minute))
	require.NoError(t, msgRepo.Save(ctx, first, nil))
	second := newTestMessage(conv, b, "yo", now)
	require.NoError(t, msgRepo.Save(ctx, second, []uuid.UUID{ma.ID}))

	reloaded, err := convRepo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.MembershipOf(a).IsArchived)

	unread, err := msgRepo.UnreadCounts(ctx, []uuid.UUID{ma.ID, mb.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread[ma.ID])
	assert.Equal(t, int64(1), unread[mb.ID])

	latest, err := msgRepo.Latest(ctx, []uuid.UUID{ma.ID, mb.ID})
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest[ma.ID].ID)
	assert.Len(t, latest[ma.ID].Recipients, 2)

	page, total, err := msgRepo.ListForMembership(ctx, mb.ID, domain.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 2)
	assert.Equal(t, second.ID, page[0].ID, "newest first")

	// b 讀取 first 只會改到 b 自己的列
	row := first.RecipientOf(b)
	n, err := msgRepo.MarkRead(ctx, []uuid.UUID{row.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, err = msgRepo.UnreadCounts(ctx, []uuid.UUID{ma.ID, mb.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread[ma.ID])
	assert.Zero(t, unread[mb.ID])

	n, err = msgRepo.MarkAllRead(ctx, ma.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// reaction 只在自己的列
	love := domain.ReactionLove
	n, err = msgRepo.SetReaction(ctx, mb.ID, first.ID, &love, b, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = msgRepo.SetReaction(ctx, mb.ID, uuid.New(), &love, b, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	// a 刪除單則, 再刪除整個 conversation; b 不受影響
	n, err = msgRepo.SoftDeleteOne(ctx, ma.ID, first.ID, a, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = msgRepo.SoftDeleteForMembership(ctx, ma.ID, a, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, total, err = msgRepo.ListForMembership(ctx, ma.ID, domain.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	page, total, err = msgRepo.ListForMembership(ctx, mb.ID, domain.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.NotNil(t, page[1].RecipientOf(b).Reaction)
	assert.Equal(t, domain.ReactionLove, *page[1].RecipientOf(b).Reaction)
}

func TestMessageRepository_SaveUnknownMembership(t *testing.T) {
	ctx := context.Background()
	convRepo := NewConversationRepository(testDB)
	msgRepo := NewMessageRepository(testDB)
	a, b := uuid.New(), uuid.New()

	conv := newTestConversation(a, b)
	require.NoError(t, convRepo.Create(ctx, conv))

	msg := newTestMessage(conv, a, "hi", time.Now().UTC())
	err := msgRepo.Save(ctx, msg, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)

	// transaction rollback: 訊息不存在
	_, total, err := msgRepo.ListForMembership(ctx, conv.MembershipOf(a).ID, domain.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestConversationRepository_ListForMember(t *testing.T) {
	ctx := context.Background()
	convRepo := NewConversationRepository(testDB)
	msgRepo := NewMessageRepository(testDB)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	older := newTestConversation(a, b)
	newer := newTestConversation(a, c)
	silent := newTestConversation(a, b, c)
	for _, conv := range []*domain.Conversation{older, newer, silent} {
		require.NoError(t, convRepo.Create(ctx, conv))
	}
	require.NoError(t, msgRepo.Save(ctx, newTestMessage(older, b, "1", now.Add(-time.Hour)), nil))
	require.NoError(t, msgRepo.Save(ctx, newTestMessage(newer, c, "2", now), nil))
	require.NoError(t, convRepo.SetArchived(ctx, older.MembershipOf(a).ID, true, a))

	page := domain.PageRequest{Page: 1, PageSize: 20}
	rows, total, err := convRepo.ListForMember(ctx, a, domain.ConversationFilter{PageRequest: page})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "conversations without visible messages are not listed")
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].Conversation.ID)

	archived := false
	rows, _, err = convRepo.ListForMember(ctx, a, domain.ConversationFilter{Archived: &archived, PageRequest: page})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, newer.ID, rows[0].Conversation.ID)

	// b 看得到 older, 不受 a 封存影響
	rows, _, err = convRepo.ListForMember(ctx, b, domain.ConversationFilter{Archived: &archived, PageRequest: page})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, older.ID, rows[0].Conversation.ID)

}

func insertTestAccount(t *testing.T, id uuid.UUID, first, username string, status accountdomain.AccountStatus) {
	t.Helper()
	require.NoError(t, testDB.Exec(`INSERT INTO accounts (id, first_name, username, email, status) VALUES (?, ?, ?, ?, ?)`,
		id, first, username, username+"@example.com", int(status)).Error)
}

func TestConversationRepository_ListForMember_Search(t *testing.T) {
	ctx := context.Background()
	convRepo := NewConversationRepository(testDB)
	msgRepo := NewMessageRepository(testDB)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	tag := "bulk" + strconv.FormatInt(time.Now().UnixNano(), 36)
	now := time.Now().UTC()

	// 超過 postgres bind 參數上限的命中數
	require.NoError(t, testDB.Exec(`INSERT INTO accounts (id, first_name, username, email)
SELECT gen_random_uuid(), 'Bulk', ?::text || '_' || g::text, ?::text || '_' || g::text || '@example.com'
FROM generate_series(1, 70000) AS g`, tag, tag).Error)
	insertTestAccount(t, a, "Ann", tag+"_owner_x", accountdomain.AccountStatusActive)
	insertTestAccount(t, b, "Bella", tag+"_b", accountdomain.AccountStatusActive)
	insertTestAccount(t, c, "Cid", tag+"_c", accountdomain.AccountStatusDelete)

	withB := newTestConversation(a, b)
	withC := newTestConversation(a, c)
	for _, conv := range []*domain.Conversation{withB, withC} {
		require.NoError(t, convRepo.Create(ctx, conv))
	}
	require.NoError(t, msgRepo.Save(ctx, newTestMessage(withB, b, "1", now.Add(-time.Minute)), nil))
	require.NoError(t, msgRepo.Save(ctx, newTestMessage(withC, c, "2", now), nil))

	page := domain.PageRequest{Page: 1, PageSize: 20}
	rows, total, err := convRepo.ListForMember(ctx, a, domain.ConversationFilter{Search: "BELLA", PageRequest: page})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "case-insensitive")
	require.Len(t, rows, 1)
	assert.Equal(t, withB.ID, rows[0].Conversation.ID)

	// caller 自己也算成員, 已刪除帳號不算
	rows, total, err = convRepo.ListForMember(ctx, a, domain.ConversationFilter{Search: tag, PageRequest: page})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)

	rows, total, err = convRepo.ListForMember(ctx, a, domain.ConversationFilter{Search: "Cid", PageRequest: page})
	require.NoError(t, err)
	assert.Zero(t, total, "deleted accounts do not match")
	assert.Empty(t, rows)

	_, total, err = convRepo.ListForMember(ctx, a, domain.ConversationFilter{Search: "%", PageRequest: page})
	require.NoError(t, err)
	assert.Zero(t, total, "LIKE wildcards are escaped")
}

func TestRedisPubSub_SkipsOwnEnvelopes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	channel := "chat:test:" + uuid.NewString()

	a := NewRedisPubSub(testRedis, channel, "instance-a")
	b := NewRedisPubSub(testRedis, channel, "instance-b")

	gotA := make(chan domain.Push, 1)
	gotB := make(chan domain.Push, 1)
	require.NoError(t, a.Subscribe(ctx, func(_ context.Context, p domain.Push) { gotA <- p }))
	require.NoError(t, b.Subscribe(ctx, func(_ context.Context, p domain.Push) { gotB <- p }))

	push := domain.Push{
		AccountIDs: []uuid.UUID{uuid.New()},
		Event:      domain.WSResponse{Action: domain.EventMessage, Success: true},
	}
	require.NoError(t, a.Publish(ctx, push))

	select {
	case p := <-gotB:
		assert.Equal(t, push.AccountIDs, p.AccountIDs)
		assert.Equal(t, domain.EventMessage, p.Event.Action)
	case <-time.After(5 * time.Second):
		t.Fatal("instance-b did not receive the envelope")
	}

	select {
	case <-gotA:
		t.Fatal("instance-a received its own envelope")
	case <-time.After(300 * time.Millisecond):
	}
}
