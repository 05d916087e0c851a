package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chat_delivery_service/internal/chat/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockKafkaWriter struct {
	mock.Mock
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

type mockRabbit struct {
	mock.Mock
}

func (m *mockRabbit) DeclareFanoutExchange(name string) error {
	return m.Called(name).Error(0)
}

func (m *mockRabbit) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockRabbit) Close() error {
	return m.Called().Error(0)
}

func testEvent() domain.DeliveryEvent {
	return domain.DeliveryEvent{
		MessageID:      uuid.New(),
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		RecipientIDs:   []uuid.UUID{uuid.New()},
		OccurredAt:     time.Now().UTC(),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := new(mockKafkaWriter)
	event := testEvent()

	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != event.ConversationID.String() {
			return false
		}
		var got domain.DeliveryEvent
		return json.Unmarshal(msgs[0].Value, &got) == nil && got.MessageID == event.MessageID
	})).Return(nil)

	p := NewKafkaPublisher(w)
	assert.NoError(t, p.Publish(context.Background(), event))
	assert.Equal(t, "kafka", p.Driver())
	w.AssertExpectations(t)
}

func TestRabbitPublisher_Publish(t *testing.T) {
	ch := new(mockRabbit)
	event := testEvent()

	ch.On("DeclareFanoutExchange", "chat.delivery").Return(nil)
	ch.On("Publish", "chat.delivery", "", false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
		return msg.MessageId == event.MessageID.String() && msg.ContentType == "application/json"
	})).Return(nil)

	p, err := NewRabbitPublisher(ch, "chat.delivery")
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), event))
	ch.AssertExpectations(t)
}

func TestRabbitPublisher_DeclareFails(t *testing.T) {
	ch := new(mockRabbit)
	ch.On("DeclareFanoutExchange", "x").Return(errors.New("closed"))

	_, err := NewRabbitPublisher(ch, "x")
	assert.Error(t, err)
}

type fakePresigner struct {
	calls []string
}

func (f *fakePresigner) PresignGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	f.calls = append(f.calls, objectName)
	return "https://minio.local/chat/" + objectName + "?sig=1", nil
}

func TestMinIOSigner_Sign(t *testing.T) {
	p := &fakePresigner{}
	s := NewMinIOSigner(p, time.Minute)

	got, err := s.Sign(context.Background(), "/attachments/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/chat/attachments/a.png?sig=1", got)

	got, err = s.Sign(context.Background(), "https://cdn.example.com/b.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/b.png", got)
	assert.Equal(t, []string{"attachments/a.png"}, p.calls)
}
