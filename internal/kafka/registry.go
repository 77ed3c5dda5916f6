package kafka

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/registry"
)

// RegistryClient implements SchemaRegistryClient against a Confluent schema
// registry. IDs are cached per subject and schema fingerprint, so a poller
// that keeps seeing the same columns registers once.
type RegistryClient struct {
	client *registry.Client

	mu    sync.Mutex
	cache map[registryKey]int
}

type registryKey struct {
	subject     string
	fingerprint [32]byte
}

func NewRegistryClient(baseURL string) (*RegistryClient, error) {
	client, err := registry.NewClient(baseURL, registry.WithHTTPClient(&http.Client{
		Timeout: 10 * time.Second,
	}))
	if err != nil {
		return nil, fmt.Errorf("creating schema registry client: %w", err)
	}
	return &RegistryClient{
		client: client,
		cache:  make(map[registryKey]int),
	}, nil
}

// GetSchemaID registers schema under subject. The registry answers with the
// existing ID when the schema is already registered.
func (c *RegistryClient) GetSchemaID(ctx context.Context, subject string, schema avro.Schema) (int, error) {
	key := registryKey{subject: subject, fingerprint: schema.Fingerprint()}

	c.mu.Lock()
	id, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	id, _, err := c.client.CreateSchema(ctx, subject, schema.String())
	if err != nil {
		return 0, fmt.Errorf("registering schema for subject %s: %w", subject, err)
	}

	c.mu.Lock()
	c.cache[key] = id
	c.mu.Unlock()
	return id, nil
}
