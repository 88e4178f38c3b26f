// Package kafka builds Kafka clients for the change feed.
package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// ProducerConfig holds producer settings.
type ProducerConfig struct {
	Brokers  []string
	ClientID string
	MaxRetry int
	Timeout  time.Duration
}

// NewSaramaConfig returns the producer configuration used by the change feed.
func NewSaramaConfig(cfg ProducerConfig) *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = false

	if cfg.MaxRetry > 0 {
		config.Producer.Retry.Max = cfg.MaxRetry
	}
	if cfg.Timeout > 0 {
		config.Producer.Timeout = cfg.Timeout
	}
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}

	return config
}

// NewSyncProducer connects a synchronous producer to cfg.Brokers.
func NewSyncProducer(cfg ProducerConfig) (sarama.SyncProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}

	return producer, nil
}
