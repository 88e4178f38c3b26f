// Package eventpublisher delivers committed log entries to external systems.
package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerd/internal/domain"
)

// KafkaPublisher implements usecase.EntryPublisher on a sarama SyncProducer.
// Messages are keyed by the first account touched so one account's events stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher.
func NewKafkaPublisher(producer sarama.SyncProducer, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends event and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.EntryCommittedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", event.SequenceID, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
			{Key: []byte("sequence_id"), Value: []byte(strconv.FormatInt(event.SequenceID, 10))},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish event %d: %w", event.SequenceID, err)
	}

	p.logger.Debug().
		Int64("sequence_id", event.SequenceID).
		Str("event_type", event.EventType).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("event published")

	return nil
}

// Close closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event domain.EntryCommittedEvent) error {
	payload, err := json.Marshal(event.Changes)
	if err != nil {
		return err
	}

	p.logger.Info().
		Int64("sequence_id", event.SequenceID).
		Str("event_type", event.EventType).
		RawJSON("changes", payload).
		Msg("event published")

	return nil
}
