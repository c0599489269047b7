package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/pkg/models"
)

const DefaultRecommendationTopic = "recommendations-served"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes served recommendation lists to a topic, keyed by
// user id so one user's events stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *logrus.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *logrus.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultRecommendationTopic
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			Async:                  false,
			BatchTimeout:           10 * time.Millisecond,
			BatchSize:              100,
			AllowAutoTopicCreation: true,
		},
		topic:   topic,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.RecommendationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "algorithm", Value: []byte(event.Algorithm)},
			{Key: "timestamp", Value: []byte(event.GeneratedAt.Format(time.RFC3339))},
		},
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write event to Kafka: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  event.UserID,
		"topic":    p.topic,
	}).Debug("Recommendation event published")

	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	return nil
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.RecommendationEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// Publisher is what the recommendation service publishes through.
type Publisher interface {
	Publish(ctx context.Context, event models.RecommendationEvent) error
	Close() error
}

// NewPublisher returns a KafkaPublisher when brokers are configured and a
// NopPublisher otherwise.
func NewPublisher(cfg config.KafkaConfig, logger *logrus.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("Kafka not configured, recommendation events disabled")
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg, logger)
}
