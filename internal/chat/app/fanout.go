package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/internal/chat/hub"
	"chat_delivery_service/internal/chat/repository"
	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/metrics"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Broadcaster push events to live connections, the relay and the notification channel
type Broadcaster struct {
	directory Directory
	relay     Relay
	notifier  repository.EventPublisher
	timeout   time.Duration
}

// NewBroadcaster create Broadcaster, relay may be nil (single instance)
func NewBroadcaster(directory Directory, relay Relay, notifier repository.EventPublisher, timeout time.Duration) *Broadcaster {
	if notifier == nil {
		notifier = repository.NoopPublisher{}
	}
	return &Broadcaster{
		directory: directory,
		relay:     relay,
		notifier:  notifier,
		timeout:   timeout,
	}
}

// Broadcast deliver every push locally and through the relay, then publish event.
// 失敗只記 log, 寫入已成功不回滾
func (b *Broadcaster) Broadcast(ctx context.Context, pushes []domain.Push, event *domain.DeliveryEvent) {
	if err := b.deliver(ctx, pushes); err != nil {
		logger.Log.Warn("fan-out partially failed", zap.Int("pushes", len(pushes)), zap.Error(err))
	}
	if b.relay != nil {
		for _, p := range pushes {
			if err := b.relay.Publish(ctx, p); err != nil {
				logger.Log.Warn("relay publish failed", zap.String("event", string(p.Event.Action)), zap.Error(err))
			}
		}
	}

	if event == nil {
		return
	}
	event.Online = b.directory.Online(event.RecipientIDs)
	driver := b.notifier.Driver()
	if err := b.notifier.Publish(ctx, *event); err != nil {
		metrics.NotifyPublished.WithLabelValues(driver, "failed").Inc()
		logger.Log.Warn("notify publish failed",
			zap.String("driver", driver),
			zap.String("message_id", event.MessageID.String()),
			zap.Error(err),
		)
		return
	}
	metrics.NotifyPublished.WithLabelValues(driver, "ok").Inc()
}

// Deliver push to this instance's connections of push.AccountIDs, 回傳所有失敗
func (b *Broadcaster) Deliver(ctx context.Context, push domain.Push) error {
	return b.deliver(ctx, []domain.Push{push})
}

type outbound struct {
	event   string
	payload []byte
}

// deliver 每條連線一個 goroutine, 依序送出屬於它的 pushes.
// 連線之間互不等待; 同一條連線第一次失敗後, 剩下的 pushes 不再送
func (b *Broadcaster) deliver(ctx context.Context, pushes []domain.Push) error {
	var (
		errs   error
		queues = map[string][]outbound{}
		conns  []hub.Conn
	)
	for _, p := range pushes {
		targets := b.directory.ConnectionsForMany(p.AccountIDs)
		if len(targets) == 0 {
			continue
		}
		payload, err := json.Marshal(p.Event)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, c := range targets {
			if _, ok := queues[c.ID()]; !ok {
				conns = append(conns, c)
			}
			queues[c.ID()] = append(queues[c.ID()], outbound{event: string(p.Event.Action), payload: payload})
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range conns {
		wg.Add(1)
		go func(c hub.Conn, queue []outbound) {
			defer wg.Done()
			for i, o := range queue {
				sendCtx, cancel := context.WithTimeout(ctx, b.timeout)
				err := c.Send(sendCtx, o.payload)
				cancel()
				if err != nil {
					for _, skipped := range queue[i:] {
						metrics.FanoutDeliveries.WithLabelValues(skipped.event, "failed").Inc()
					}
					mu.Lock()
					errs = multierr.Append(errs, err)
					mu.Unlock()
					return
				}
				metrics.FanoutDeliveries.WithLabelValues(o.event, "ok").Inc()
			}
		}(c, queues[c.ID()])
	}
	wg.Wait()
	return errs
}

// HandleRelay deliver a push received from another instance
func (b *Broadcaster) HandleRelay(ctx context.Context, push domain.Push) {
	if err := b.Deliver(ctx, push); err != nil {
		logger.Log.Warn("relayed fan-out partially failed", zap.String("event", string(push.Event.Action)), zap.Error(err))
	}
}
