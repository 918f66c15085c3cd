package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"greencart/internal/metrics"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// Producer writes JSON encoded events to Kafka. One writer serves every
// topic; the topic travels on each message.
type Producer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers      []string
	WriteTimeout time.Duration
}

// NewProducer creates a producer. No connection is made until the first
// Publish.
func NewProducer(cfg ProducerConfig) *Producer {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: logger.Get().With("component", "kafka_producer"),
	}
}

// Publish sends event to topic. Events with the same key land on the same
// partition, so a simulation's events stay ordered.
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "encode event for %s", topic)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   data,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "content-type", Value: []byte("application/json")}},
	})
	metrics.RecordKafkaMessage(topic, err)
	if err != nil {
		p.log.Errorw("Kafka write failed", "topic", topic, "key", key, "error", err)
		return errors.Wrapf(err, "write to %s", topic)
	}

	p.log.Debugw("Kafka message written", "topic", topic, "key", key)
	return nil
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, "close kafka writer")
	}
	return nil
}
