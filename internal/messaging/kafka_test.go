package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/pkg/models"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func testEvent() models.RecommendationEvent {
	return models.RecommendationEvent{
		EventID:     uuid.New(),
		UserID:      "user-1",
		Algorithm:   "rule_based",
		ProductIDs:  []string{"p1", "p2"},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := new(MockWriter)
	publisher := &KafkaPublisher{writer: writer, topic: "recs", timeout: time.Second, logger: quietLogger()}
	event := testEvent()

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "user-1" {
			return false
		}
		var decoded models.RecommendationEvent
		if err := json.Unmarshal(msgs[0].Value, &decoded); err != nil {
			return false
		}
		return decoded.EventID == event.EventID && len(decoded.ProductIDs) == 2
	})).Return(nil)

	require.NoError(t, publisher.Publish(context.Background(), event))
	writer.AssertExpectations(t)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	writer := new(MockWriter)
	publisher := &KafkaPublisher{writer: writer, topic: "recs", logger: quietLogger()}

	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := publisher.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestKafkaPublisher_Close(t *testing.T) {
	writer := new(MockWriter)
	writer.On("Close").Return(nil)

	publisher := &KafkaPublisher{writer: writer, logger: quietLogger()}
	assert.NoError(t, publisher.Close())
	writer.AssertExpectations(t)
}

func TestNewPublisher(t *testing.T) {
	nop := NewPublisher(config.KafkaConfig{}, quietLogger())
	assert.IsType(t, NopPublisher{}, nop)
	assert.NoError(t, nop.Publish(context.Background(), testEvent()))
	assert.NoError(t, nop.Close())

	kp := NewPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, quietLogger())
	require.IsType(t, &KafkaPublisher{}, kp)
	assert.Equal(t, DefaultRecommendationTopic, kp.(*KafkaPublisher).topic)
}
