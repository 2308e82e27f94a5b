// Package producer publishes dispatch events to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"alert-dispatcher/internal/events"
	kafkautil "alert-dispatcher/pkg/kafka"
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a Kafka writer for the alerts.dispatched topic.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a Kafka producer for a comma-separated broker list.
// Writes are synchronous and wait for the leader ack.
func NewProducer(brokers, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
		"write_timeout", kafkautil.WriteTimeout,
		"partition_key", "alert_uuid (hashed)",
	)

	return &Producer{
		writer: kafkautil.NewWriter(brokerList, topic),
		topic:  topic,
	}, nil
}

// Publish serializes the event to JSON and writes it keyed by alert_uuid.
func (p *Producer) Publish(ctx context.Context, e *events.AlertDispatched) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal alert dispatched event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.AlertUUID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "schema_version", Value: []byte(strconv.Itoa(e.SchemaVersion))},
			{Key: "outcome", Value: []byte(e.Outcome)},
			{Key: "alert_uuid", Value: []byte(e.AlertUUID)},
		},
		Time: e.Time(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"alert_uuid", e.AlertUUID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Debug("Published alert dispatched event",
		"alert_uuid", e.AlertUUID,
		"outcome", e.Outcome,
		"sent", e.Sent,
		"failed", e.Failed,
		"skipped", e.Skipped,
	)
	return nil
}

// Close gracefully closes the Kafka writer.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}

// NoOp discards events. It is used when no Kafka brokers are configured.
type NoOp struct{}

// Publish does nothing.
func (NoOp) Publish(context.Context, *events.AlertDispatched) error { return nil }

// Close does nothing.
func (NoOp) Close() error { return nil }
