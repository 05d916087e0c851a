package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// relayEnvelope what travels over the redis channel
type relayEnvelope struct {
	Origin string      `json:"origin"`
	Push   domain.Push `json:"push"`
}

// RedisPubSub definition redis pub/sub relay between chat instances
type RedisPubSub struct {
	client   redis.UniversalClient
	channel  string
	instance string
}

// NewRedisPubSub create RedisPubSub
// instance 用來辨識自己發出的訊息，避免重複推送
func NewRedisPubSub(client redis.UniversalClient, channel, instance string) *RedisPubSub {
	return &RedisPubSub{
		client:   client,
		channel:  channel,
		instance: instance,
	}
}

// Publish 將 push 序列化後，發布到 relay channel
func (r *RedisPubSub) Publish(ctx context.Context, push domain.Push) error {
	data, err := json.Marshal(relayEnvelope{Origin: r.instance, Push: push})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Subscribe 訂閱 relay channel，收到其他 instance 的 push 後呼叫 handler
// ctx 取消時關閉訂閱
func (r *RedisPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, push domain.Push)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	// 確認訂閱成功
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var env relayEnvelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					logger.Log.Warn("relay unmarshal failed", zap.Error(err))
					continue
				}
				if env.Origin == r.instance {
					continue
				}
				handler(ctx, env.Push)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", r.channel))
				return
			}
		}
	}()
	return nil
}
