// Package config loads service configuration. Defaults are overlaid first by
// an optional YAML file (CONFIG_FILE), then by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	Store         StoreConfig         `yaml:"store"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Recognizer    RecognizerConfig    `yaml:"recognizer"`
}

// ServiceConfig holds service identity settings.
type ServiceConfig struct {
	Principal string `yaml:"principal"`
}

// HTTPConfig holds the REST API server settings.
type HTTPConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsPort string `yaml:"metrics_port"`
}

// StoreConfig holds version store settings.
type StoreConfig struct {
	// Backend selects the version store backend: "sqlite" or "memory".
	Backend string `yaml:"backend"`
	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// RecognizerConfig holds speech recognition ingestion settings.
type RecognizerConfig struct {
	// Provider selects the recognition adapter: "google" or "mock".
	Provider     string `yaml:"provider"`
	LanguageCode string `yaml:"language_code"`
	SampleRateHz int    `yaml:"sample_rate_hz"`
	Diarize      bool   `yaml:"diarize"`
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Brokers         []string `yaml:"brokers"`
	TopicVersion    string   `yaml:"topic_version"`
	TopicCorrection string   `yaml:"topic_correction"`
	Principal       string   `yaml:"principal"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal: "svc-transcript-revision",
		},
		HTTP: HTTPConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: "9090",
		},
		Store: StoreConfig{
			Backend:    "sqlite",
			SQLitePath: "data/versions.db",
		},
		Kafka: KafkaConfig{
			Enabled:         false,
			Brokers:         nil,
			TopicVersion:    "transcript.revision.saved",
			TopicCorrection: "transcript.correction.merged",
		},
		Recognizer: RecognizerConfig{
			Provider:     "mock",
			LanguageCode: "en-US",
			SampleRateHz: 16000,
			Diarize:      true,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", c.Service.Principal)

	c.HTTP.Port = envOrDefault("HTTP_PORT", c.HTTP.Port)
	c.HTTP.ReadTimeout = envOrDefaultDuration("HTTP_READ_TIMEOUT", c.HTTP.ReadTimeout)
	c.HTTP.WriteTimeout = envOrDefaultDuration("HTTP_WRITE_TIMEOUT", c.HTTP.WriteTimeout)
	c.HTTP.ShutdownTimeout = envOrDefaultDuration("HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)

	c.Observability.LogLevel = envOrDefault("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = envOrDefault("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsPort = envOrDefault("METRICS_PORT", c.Observability.MetricsPort)

	c.Store.Backend = envOrDefault("STORE_BACKEND", c.Store.Backend)
	c.Store.SQLitePath = envOrDefault("STORE_SQLITE_PATH", c.Store.SQLitePath)

	c.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", c.Kafka.Enabled)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitAndTrim(v)
	}
	c.Kafka.TopicVersion = envOrDefault("KAFKA_TOPIC_VERSION", c.Kafka.TopicVersion)
	c.Kafka.TopicCorrection = envOrDefault("KAFKA_TOPIC_CORRECTION", c.Kafka.TopicCorrection)
	c.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", c.Kafka.Principal)
	if c.Kafka.Principal == "" {
		c.Kafka.Principal = c.Service.Principal
	}

	c.Recognizer.Provider = envOrDefault("RECOGNIZER_PROVIDER", c.Recognizer.Provider)
	c.Recognizer.LanguageCode = envOrDefault("RECOGNIZER_LANGUAGE", c.Recognizer.LanguageCode)
	c.Recognizer.SampleRateHz = envOrDefaultInt("RECOGNIZER_SAMPLE_RATE_HZ", c.Recognizer.SampleRateHz)
	c.Recognizer.Diarize = envOrDefaultBool("RECOGNIZER_DIARIZE", c.Recognizer.Diarize)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store backend sqlite requires a database path")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled but no brokers configured")
	}

	switch c.Recognizer.Provider {
	case "google", "mock":
	default:
		return fmt.Errorf("unknown recognizer provider %q", c.Recognizer.Provider)
	}
	if c.Recognizer.SampleRateHz <= 0 {
		return fmt.Errorf("recognizer sample rate must be positive, got %d", c.Recognizer.SampleRateHz)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
