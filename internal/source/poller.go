// Package source implements the close-approach → Kafka source pipeline.
//
// # Overview
//
// Each configured query gets its own [Poller] goroutine. A poll cycle runs
// the query against the JPL CAD API and publishes every returned row to the
// query's topic as one message.
//
// # Data Flow
//
//	┌──────────────┐     ┌───────────────────┐     ┌──────────────┐
//	│   JPL CAD    │────▶│  Source Poller     │────▶│    Kafka     │
//	│     API      │     │  (per query)       │     │  Producer    │
//	│              │     │                    │     │              │
//	│  GET cad.api │     │  1. Fetch table    │     │  Topic per   │
//	│  ?date-min=  │     │  2. Key + encode   │     │  query       │
//	│   now&...    │     │  3. Produce batch  │     │              │
//	│              │     │     (sync)         │     │  acks=all    │
//	└──────────────┘     └───────────────────┘     └──────────────┘
//
// # Windows
//
// Queries usually use relative windows ("now" to "+60"), so consecutive
// cycles return overlapping rows. Nothing is tracked between cycles; the
// default partitioner keys each row by designation and approach time, so
// consumers of a compacted topic see one message per approach.
//
// # Intervals
//
// source.poll_interval sets the wait between cycles. An interval of 0 runs a
// single cycle and returns, which is what the -once flag uses.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hamba/avro/v2"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/config"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/kafka"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/nasa"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/observability"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/partition"
)

// Message headers set on every produced record.
const (
	HeaderQuery     = "cad_query"
	HeaderSignature = "cad_signature"
)

// Fetcher runs a close-approach query. *nasa.Client implements it.
type Fetcher interface {
	CloseApproach(ctx context.Context, q nasa.CloseApproachQuery) (map[string]any, error)
}

// Publisher produces a batch of messages synchronously. *kafka.Producer
// implements it.
type Publisher interface {
	ProduceBatchSync(ctx context.Context, topic string, messages []kafka.Message) error
}

// AvroEncoder encodes a record against a schema registered under subject.
// *kafka.AvroSerializer implements it.
type AvroEncoder interface {
	Serialize(ctx context.Context, subject string, schema avro.Schema, record map[string]any) ([]byte, error)
}

// Poller runs one configured close-approach query on an interval and
// publishes the rows.
type Poller struct {
	cfg      config.QueryConfig
	query    nasa.CloseApproachQuery
	interval time.Duration

	client      Fetcher
	producer    Publisher
	avro        AvroEncoder
	partitioner partition.Partitioner
	logger      *slog.Logger

	// Avro schema of the last seen column set.
	schema     avro.Schema
	schemaCols string
}

// NewPoller creates a Poller for the given query configuration. The query
// parameters are decoded and validated here, so a bad query fails at
// startup rather than on the first tick. avroEnc may be nil for JSON queries.
func NewPoller(
	cfg config.QueryConfig,
	srcCfg config.SourceConfig,
	client Fetcher,
	producer Publisher,
	avroEnc AvroEncoder,
	logger *slog.Logger,
) (*Poller, error) {
	q, err := nasa.QueryFromMap(cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", cfg.Name, err)
	}
	if cfg.Format == "avro" && avroEnc == nil {
		return nil, fmt.Errorf("query %s: avro format requires a schema registry", cfg.Name)
	}

	return &Poller{
		cfg:         cfg,
		query:       q,
		interval:    srcCfg.PollInterval.Duration,
		client:      client,
		producer:    producer,
		avro:        avroEnc,
		partitioner: partition.New(cfg),
		logger: logger.With(
			"component", "source-poller",
			"query", cfg.Name,
			"topic", cfg.Topic,
		),
	}, nil
}

// Query returns the decoded close-approach query.
func (p *Poller) Query() nasa.CloseApproachQuery { return p.query }

// Run polls until the context is cancelled. A failed cycle is logged and
// retried on the next tick. With a zero interval Run performs one cycle and
// returns its error.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("starting source poller", "interval", p.interval, "format", p.format())

	for {
		n, err := p.pollOnce(ctx)
		if p.interval <= 0 {
			return err
		}
		if err != nil {
			p.logger.Error("poll cycle failed", "error", err)
		} else {
			p.logger.Info("poll cycle complete", "records", n)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("source poller shutting down")
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// pollOnce runs the query and produces every row. Returns the number of rows
// published.
func (p *Poller) pollOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		observability.Metrics.SourcePollDuration.WithLabelValues(p.cfg.Name).Observe(time.Since(start).Seconds())
	}()

	result, err := p.client.CloseApproach(ctx, p.query)
	if err != nil {
		p.countError("fetch")
		return 0, fmt.Errorf("fetching close approaches: %w", err)
	}

	table, err := nasa.TableFromResult(result)
	if err != nil {
		p.countError("decode")
		return 0, fmt.Errorf("decoding close approaches: %w", err)
	}
	observability.Metrics.SourceRecordsTotal.WithLabelValues(p.cfg.Name).Add(float64(table.Len()))

	if table.Len() == 0 {
		p.logger.Debug("no close approaches in window")
		observability.Metrics.SourceLastSuccess.WithLabelValues(p.cfg.Name).SetToCurrentTime()
		return 0, nil
	}

	messages, err := p.buildMessages(ctx, table, signatureVersion(result))
	if err != nil {
		p.countError("encode")
		return 0, err
	}

	if err := p.producer.ProduceBatchSync(ctx, p.cfg.Topic, messages); err != nil {
		p.countError("produce")
		return 0, fmt.Errorf("producing close approaches: %w", err)
	}

	observability.Metrics.SourceProduceTotal.WithLabelValues(p.cfg.Name, p.cfg.Topic).Add(float64(len(messages)))
	observability.Metrics.SourceLastSuccess.WithLabelValues(p.cfg.Name).SetToCurrentTime()
	return len(messages), nil
}

func (p *Poller) buildMessages(ctx context.Context, table *nasa.Table, signature string) ([]kafka.Message, error) {
	headers := map[string]string{HeaderQuery: p.cfg.Name}
	if signature != "" {
		headers[HeaderSignature] = signature
	}

	var schema avro.Schema
	if p.format() == "avro" {
		var err error
		if schema, err = p.avroSchema(table.Columns()); err != nil {
			return nil, err
		}
	}

	records := table.Records()
	messages := make([]kafka.Message, len(records))
	for i, rec := range records {
		value, err := p.encode(ctx, schema, rec)
		if err != nil {
			return nil, fmt.Errorf("encoding row %d: %w", i, err)
		}
		messages[i] = kafka.Message{
			Key:     p.partitioner.Key(rec),
			Value:   value,
			Headers: headers,
		}
	}
	return messages, nil
}

func (p *Poller) encode(ctx context.Context, schema avro.Schema, rec nasa.Record) ([]byte, error) {
	if schema == nil {
		return json.Marshal(rec)
	}
	return p.avro.Serialize(ctx, p.cfg.Topic+"-value", schema, rec)
}

// avroSchema returns the schema for cols, regenerating it when the column
// set changes (e.g. fullname toggled).
func (p *Poller) avroSchema(cols []string) (avro.Schema, error) {
	key := strings.Join(cols, "\x00")
	if p.schema != nil && key == p.schemaCols {
		return p.schema, nil
	}
	schema, err := kafka.GenerateAvroSchema(p.cfg.Name, cols)
	if err != nil {
		return nil, fmt.Errorf("generating avro schema: %w", err)
	}
	p.schema, p.schemaCols = schema, key
	return schema, nil
}

func (p *Poller) format() string {
	if p.cfg.Format == "" {
		return "json"
	}
	return p.cfg.Format
}

func (p *Poller) countError(kind string) {
	observability.Metrics.SourceErrorsTotal.WithLabelValues(p.cfg.Name, kind).Inc()
}

// signatureVersion extracts signature.version from a CAD response.
func signatureVersion(result map[string]any) string {
	sig, ok := result["signature"].(map[string]any)
	if !ok {
		return ""
	}
	v, ok := sig["version"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
