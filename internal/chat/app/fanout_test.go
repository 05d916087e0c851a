package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/hub"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_Deliver(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	registry := hub.NewRegistry()
	phone, laptop, slow := newFakeConn(), newFakeConn(), newFakeConn()
	slow.block = true
	registry.Register(a, phone)
	registry.Register(a, laptop)
	registry.Register(b, slow)
	defer func() {
		registry.Unregister(a, phone)
		registry.Unregister(a, laptop)
		registry.Unregister(b, slow)
	}()

	br := NewBroadcaster(registry, nil, nil, 50*time.Millisecond)
	push := domain.Push{AccountIDs: []uuid.UUID{a, b}, Event: domain.WSResponse{Action: domain.EventMessage, Success: true, Payload: "hi"}}

	start := time.Now()
	err := br.Deliver(context.Background(), push)
	assert.Error(t, err, "slow connection times out")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)

	// 慢的連線不影響其他裝置
	for _, c := range []*fakeConn{phone, laptop} {
		got := c.received()
		require.Len(t, got, 1)
		var resp domain.WSResponse
		require.NoError(t, json.Unmarshal(got[0], &resp))
		assert.Equal(t, domain.EventMessage, resp.Action)
	}
}

func TestBroadcaster_Broadcast(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	registry := hub.NewRegistry()
	conn := newFakeConn()
	registry.Register(a, conn)
	defer registry.Unregister(a, conn)

	relay := new(MockRelay)
	notifier := new(MockEventPublisher)
	relay.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	notifier.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.DeliveryEvent) bool {
		return len(e.Online) == 1 && e.Online[0] == a
	})).Return(nil)

	br := NewBroadcaster(registry, relay, notifier, time.Second)
	pushes := []domain.Push{
		{AccountIDs: []uuid.UUID{a, b}, Event: domain.WSResponse{Action: domain.EventMessage}},
		{AccountIDs: []uuid.UUID{a}, Event: domain.WSResponse{Action: domain.EventConversationSummary}},
	}
	br.Broadcast(context.Background(), pushes, &domain.DeliveryEvent{MessageID: uuid.New(), RecipientIDs: []uuid.UUID{a, b}})

	assert.Len(t, conn.received(), 2)
	relay.AssertNumberOfCalls(t, "Publish", 2)
	notifier.AssertExpectations(t)
}

func TestBroadcaster_HandleRelay(t *testing.T) {
	a := uuid.New()
	registry := hub.NewRegistry()
	conn := newFakeConn()
	registry.Register(a, conn)
	defer registry.Unregister(a, conn)

	br := NewBroadcaster(registry, nil, nil, time.Second)
	br.HandleRelay(context.Background(), domain.Push{AccountIDs: []uuid.UUID{a, uuid.New()}, Event: domain.WSResponse{Action: domain.EventMessage}})
	assert.Len(t, conn.received(), 1)
}

func TestBroadcaster_Broadcast_BlockedMemberDoesNotStallOthers(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	registry := hub.NewRegistry()
	dead, connB, connC := newFakeConn(), newFakeConn(), newFakeConn()
	dead.block = true
	registry.Register(a, dead)
	registry.Register(b, connB)
	registry.Register(c, connC)
	defer func() {
		registry.Unregister(a, dead)
		registry.Unregister(b, connB)
		registry.Unregister(c, connC)
	}()

	timeout := 300 * time.Millisecond
	br := NewBroadcaster(registry, nil, nil, timeout)
	pushes := []domain.Push{
		{AccountIDs: []uuid.UUID{a, b, c}, Event: domain.WSResponse{Action: domain.EventMessage}},
		{AccountIDs: []uuid.UUID{a}, Event: domain.WSResponse{Action: domain.EventConversationSummary}},
		{AccountIDs: []uuid.UUID{b}, Event: domain.WSResponse{Action: domain.EventConversationSummary}},
		{AccountIDs: []uuid.UUID{c}, Event: domain.WSResponse{Action: domain.EventConversationSummary}},
	}

	start := time.Now()
	done := make(chan struct{})
	go func() {
		br.Broadcast(context.Background(), pushes, nil)
		close(done)
	}()

	// B, C 不必等 A 的 timeout
	require.Eventually(t, func() bool {
		return len(connB.received()) == 2 && len(connC.received()) == 2
	}, timeout/2, 5*time.Millisecond)

	select {
	case <-done:
	case <-time.After(3 * timeout):
		t.Fatal("broadcast did not return")
	}
	// A 第一次 timeout 後剩下的 push 直接放棄
	assert.Less(t, time.Since(start), 2*timeout)

	// 同一條連線維持 push 順序
	for _, conn := range []*fakeConn{connB, connC} {
		got := conn.received()
		var first, second domain.WSResponse
		require.NoError(t, json.Unmarshal(got[0], &first))
		require.NoError(t, json.Unmarshal(got[1], &second))
		assert.Equal(t, domain.EventMessage, first.Action)
		assert.Equal(t, domain.EventConversationSummary, second.Action)
	}
}
