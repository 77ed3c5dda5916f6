package source

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/hamba/avro/v2"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/kafka"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/nasa"
)

func testSourceLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// fakeFetcher returns a fixed response and records the queries it ran.
type fakeFetcher struct {
	mu      sync.Mutex
	result  map[string]any
	err     error
	queries []nasa.CloseApproachQuery
}

func (f *fakeFetcher) CloseApproach(_ context.Context, q nasa.CloseApproachQuery) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.result, f.err
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakePublisher captures produced batches.
type fakePublisher struct {
	mu      sync.Mutex
	err     error
	topics  []string
	batches [][]kafka.Message
}

func (f *fakePublisher) ProduceBatchSync(_ context.Context, topic string, messages []kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.batches = append(f.batches, messages)
	return nil
}

// fakeEncoder records subjects and schemas and returns a marker payload.
type fakeEncoder struct {
	subjects []string
	schemas  []avro.Schema
}

func (f *fakeEncoder) Serialize(_ context.Context, subject string, schema avro.Schema, record map[string]any) ([]byte, error) {
	f.subjects = append(f.subjects, subject)
	f.schemas = append(f.schemas, schema)
	return []byte("avro:" + record["des"].(string)), nil
}

func cadResult() map[string]any {
	return map[string]any{
		"signature": map[string]any{"source": "NASA/JPL SBDB Close Approach Data API", "version": "1.5"},
		"count":     "2",
		"fields":    []any{"des", "orbit_id", "cd", "dist"},
		"data": []any{
			[]any{"2024 AB", "3", "2024-Jan-05 10:00", "0.012"},
			[]any{"433", "659", "2024-Jan-31 21:00", "0.15"},
		},
	}
}
