// Package kafka publishes close-approach records to Kafka using the franz-go
// client.
//
// # Delivery
//
// The [Producer] is synchronous: ProduceBatchSync blocks until every record
// of a poll cycle is acknowledged by the brokers (acks=all). A poll cycle
// that fails to produce is reported and retried on the next tick; records
// are keyed, so a replay lands on the same partition.
//
// # Encoding
//
// Values are either JSON documents or Avro in the Confluent wire format (see
// [AvroSerializer]). Avro schemas are derived from the column list the CAD
// API returns, see [GenerateAvroSchema].
//
// # Thread Safety
//
// Producer, AvroSerializer and RegistryClient are safe for concurrent use.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/config"
)

// Producer wraps a franz-go client for producing messages to Kafka.
//
// acks=all (RequiredAcks: -1) is used so a cycle is only reported as
// published once the records are replicated.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewProducer creates a Kafka producer from the bridge configuration.
// The client connects lazily on the first produce call.
func NewProducer(cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(5),
		kgo.RetryTimeout(30 * time.Second),
		kgo.ProducerBatchMaxBytes(1 << 20), // 1 MiB
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Kafka producer client: %w", err)
	}

	return &Producer{
		client: client,
		logger: logger.With("component", "kafka-producer"),
	}, nil
}

// ProduceBatchSync sends messages to topic and waits until all of them are
// acknowledged or the first one fails.
func (p *Producer) ProduceBatchSync(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(messages))
	for i, msg := range messages {
		records[i] = msg.record(topic)
	}

	results := p.client.ProduceSync(ctx, records...)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("batch produce to %s: %w", topic, err)
	}

	p.logger.Debug("batch produced",
		"topic", topic,
		"count", len(messages),
	)
	return nil
}

// Close flushes any pending messages and closes the Kafka connection.
func (p *Producer) Close() {
	p.client.Close()
}

// Message is a single record to be produced.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

func (m Message) record(topic string) *kgo.Record {
	rec := &kgo.Record{
		Topic: topic,
		Key:   m.Key,
		Value: m.Value,
	}
	for k, v := range m.Headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{
			Key:   k,
			Value: []byte(v),
		})
	}
	return rec
}
