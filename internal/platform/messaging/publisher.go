package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes ledger events to a single topic keyed by aggregate ID,
// so every event of one entry or reconciliation lands on the same partition.
type KafkaPublisher struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewKafkaPublisher creates a synchronous publisher for topic.
func NewKafkaPublisher(logger *slog.Logger, brokers []string, topic string, writeTimeout time.Duration) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka ledger topic is not configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{logger: logger, writer: writer, topic: topic}, nil
}

// NewKafkaPublisherWithWriter is used by tests and callers that manage their own writer.
func NewKafkaPublisherWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{logger: logger, writer: writer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event %s: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event",
			"topic", p.topic,
			"event_type", event.Type,
			"aggregate_id", event.AggregateID,
			"error", err,
		)
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, p.topic, err)
	}

	p.logger.Debug("Published ledger event", "topic", p.topic, "event_type", event.Type, "aggregate_id", event.AggregateID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing ledger event publisher", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.LedgerEvent) error { return nil }
func (NoopPublisher) Close() error                                      { return nil }
