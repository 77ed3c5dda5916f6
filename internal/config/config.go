// Package config provides YAML-based configuration loading, validation, and
// defaults for the NASA close-approach bridge.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the bridge.
type Config struct {
	NASA          NASAConfig          `yaml:"nasa"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Source        SourceConfig        `yaml:"source"`
	Observability ObservabilityConfig `yaml:"observability"`
	LogLevel      string              `yaml:"log_level"`
}

// NASAConfig holds the API endpoints and client settings.
type NASAConfig struct {
	APIKey  string `yaml:"api_key"`
	APODURL string `yaml:"apod_url"`
	CADURL  string `yaml:"cad_url"`
	// TimeoutSeconds of 0 leaves the HTTP client without a timeout.
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
}

// KafkaConfig holds kafka broker settings.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	ClientID          string   `yaml:"client_id"`
	SchemaRegistryURL string   `yaml:"schema_registry_url"`
}

// SourceConfig controls the close-approach → Kafka pipeline.
type SourceConfig struct {
	Enabled      bool          `yaml:"enabled"`
	TopicPrefix  string        `yaml:"topic_prefix"`
	PollInterval Duration      `yaml:"poll_interval"`
	Queries      []QueryConfig `yaml:"queries"`
}

// QueryConfig defines one close-approach query to run and where to publish
// its rows. Params uses the underscored parameter names (date_min, h_max,
// orbit_class, ...).
type QueryConfig struct {
	Name               string         `yaml:"name"`
	Topic              string         `yaml:"topic"`
	Format             string         `yaml:"format"` // "json" or "avro"
	Partitioner        string         `yaml:"partitioner"`
	PartitionKeyFields []string       `yaml:"partition_key_fields"`
	Params             map[string]any `yaml:"params"`
}

// ObservabilityConfig controls the metrics/health HTTP server.
type ObservabilityConfig struct {
	Addr string `yaml:"addr"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "500ms" or "30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dur
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load reads a YAML config file, expands environment variables, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand ${VAR} and $VAR references in the YAML.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	n := &cfg.NASA
	if n.APIKey == "" {
		n.APIKey = "DEMO_KEY"
	}
	if n.APODURL == "" {
		n.APODURL = "https://api.nasa.gov/planetary/apod"
	}
	if n.CADURL == "" {
		n.CADURL = "https://ssd-api.jpl.nasa.gov/cad.api"
	}

	src := &cfg.Source
	if src.TopicPrefix == "" {
		src.TopicPrefix = "cad"
	}
	for i := range src.Queries {
		q := &src.Queries[i]
		if q.Topic == "" && q.Name != "" {
			q.Topic = src.TopicPrefix + "." + q.Name
		}
		q.Format = strings.ToLower(q.Format)
		if q.Format == "" {
			q.Format = "json"
		}
		if q.Partitioner == "" {
			q.Partitioner = "default"
		}
	}

	if cfg.Observability.Addr == "" {
		cfg.Observability.Addr = ":8080"
	}
}

// validate checks that all required fields are present and valid.
func validate(cfg *Config) error {
	var errs []error

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn, or error, got %q", cfg.LogLevel))
	}

	for _, entry := range []struct {
		name  string
		value string
	}{
		{name: "nasa.apod_url", value: cfg.NASA.APODURL},
		{name: "nasa.cad_url", value: cfg.NASA.CADURL},
	} {
		if u, err := url.Parse(entry.value); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s is not a valid URL: %s", entry.name, entry.value))
		}
	}
	if cfg.NASA.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("nasa.timeout_seconds must not be negative"))
	}
	if cfg.NASA.RateLimitRPS < 0 {
		errs = append(errs, errors.New("nasa.rate_limit_rps must not be negative"))
	}

	if cfg.Source.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers must contain at least one broker when source is enabled"))
		}
		if cfg.Source.PollInterval.Duration < 0 {
			errs = append(errs, errors.New("source.poll_interval must not be negative"))
		}
		if len(cfg.Source.Queries) == 0 {
			errs = append(errs, errors.New("source.queries must contain at least one query when source is enabled"))
		}
	}

	seen := make(map[string]bool)
	for i, q := range cfg.Source.Queries {
		if q.Name == "" {
			errs = append(errs, fmt.Errorf("source.queries[%d].name is required", i))
		} else if seen[q.Name] {
			errs = append(errs, fmt.Errorf("source.queries[%d].name %q is duplicated", i, q.Name))
		}
		seen[q.Name] = true

		switch strings.ToLower(q.Format) {
		case "json":
		case "avro":
			if cfg.Kafka.SchemaRegistryURL == "" {
				errs = append(errs, fmt.Errorf("source.queries[%d]: kafka.schema_registry_url is required for avro format", i))
			}
		default:
			errs = append(errs, fmt.Errorf("source.queries[%d].format must be 'json' or 'avro', got %q", i, q.Format))
		}

		switch q.Partitioner {
		case "default", "round_robin", "field_based":
		default:
			errs = append(errs, fmt.Errorf("source.queries[%d].partitioner must be 'default', 'round_robin', or 'field_based', got %q", i, q.Partitioner))
		}
		if q.Partitioner == "field_based" && len(q.PartitionKeyFields) == 0 {
			errs = append(errs, fmt.Errorf("source.queries[%d].partition_key_fields required when partitioner is 'field_based'", i))
		}
	}

	return errors.Join(errs...)
}
