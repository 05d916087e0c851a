package repository

import (
	"context"
	"encoding/json"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/pkg/database"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

// EventPublisher definition notification channel sink
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DeliveryEvent) error
	Driver() string
}

// KafkaWriter the part of *kafka.Writer used here
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publish delivery events to a kafka topic, keyed by conversation id
type KafkaPublisher struct {
	writer KafkaWriter
}

// NewKafkaPublisher create KafkaPublisher
func NewKafkaPublisher(w KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish 同一 conversation 落在同一 partition，保持順序
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.DeliveryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ConversationID.String()),
		Value: data,
	})
}

// Driver name
func (p *KafkaPublisher) Driver() string { return "kafka" }

// RabbitPublisher publish delivery events to a fanout exchange
type RabbitPublisher struct {
	channel  database.RabbitRepo
	exchange string
}

// NewRabbitPublisher create RabbitPublisher, exchange 不存在時宣告
func NewRabbitPublisher(ch database.RabbitRepo, exchange string) (*RabbitPublisher, error) {
	if err := ch.DeclareFanoutExchange(exchange); err != nil {
		return nil, err
	}
	return &RabbitPublisher{channel: ch, exchange: exchange}, nil
}

// Publish delivery event
func (p *RabbitPublisher) Publish(_ context.Context, event domain.DeliveryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.channel.Publish(
		p.exchange,
		"", // fanout 不需要 routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.MessageID.String(),
			Timestamp:    event.OccurredAt,
			Body:         data,
		},
	)
}

// Driver name
func (p *RabbitPublisher) Driver() string { return "rabbitmq" }

// NoopPublisher notify.driver=none
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(context.Context, domain.DeliveryEvent) error { return nil }

// Driver name
func (NoopPublisher) Driver() string { return "none" }
