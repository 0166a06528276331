package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"CONFIG_FILE", "SERVICE_PRINCIPAL", "HTTP_PORT",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_PORT",
		"STORE_BACKEND", "STORE_SQLITE_PATH",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_VERSION",
		"KAFKA_TOPIC_CORRECTION", "KAFKA_PRINCIPAL",
		"RECOGNIZER_PROVIDER", "RECOGNIZER_LANGUAGE",
		"RECOGNIZER_SAMPLE_RATE_HZ", "RECOGNIZER_DIARIZE",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.Principal != "svc-transcript-revision" {
		t.Errorf("expected default principal 'svc-transcript-revision', got %s", cfg.Service.Principal)
	}
	if cfg.HTTP.Port != "8080" {
		t.Errorf("expected default port '8080', got %s", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 15*time.Second {
		t.Errorf("expected default read timeout 15s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected default store backend 'sqlite', got %s", cfg.Store.Backend)
	}
	if cfg.Store.SQLitePath != "data/versions.db" {
		t.Errorf("expected default sqlite path 'data/versions.db', got %s", cfg.Store.SQLitePath)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected kafka disabled by default")
	}
	if cfg.Kafka.TopicVersion != "transcript.revision.saved" {
		t.Errorf("expected default version topic, got %s", cfg.Kafka.TopicVersion)
	}
	if cfg.Recognizer.Provider != "mock" {
		t.Errorf("expected default recognizer 'mock', got %s", cfg.Recognizer.Provider)
	}
	if cfg.Recognizer.LanguageCode != "en-US" || cfg.Recognizer.SampleRateHz != 16000 || !cfg.Recognizer.Diarize {
		t.Errorf("unexpected recognizer defaults: %+v", cfg.Recognizer)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("HTTP_READ_TIMEOUT", "5s")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("STORE_BACKEND", "memory")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	os.Setenv("RECOGNIZER_PROVIDER", "google")
	os.Setenv("RECOGNIZER_SAMPLE_RATE_HZ", "44100")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.HTTP.Port != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected store backend 'memory', got %s", cfg.Store.Backend)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Recognizer.Provider != "google" || cfg.Recognizer.SampleRateHz != 44100 {
		t.Errorf("unexpected recognizer settings: %+v", cfg.Recognizer)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	os.Setenv("KAFKA_ENABLED", "invalid")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.ReadTimeout != 15*time.Second {
		t.Errorf("expected default read timeout on invalid input, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected kafka disabled on invalid input")
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv(t)
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("http:\n  port: \"7070\"\nstore:\n  backend: memory\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("CONFIG_FILE", path)
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != "7070" {
		t.Errorf("expected port '7070' from file, got %s", cfg.HTTP.Port)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected store backend 'memory' from file, got %s", cfg.Store.Backend)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: \"7070\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("CONFIG_FILE", path)
	os.Setenv("HTTP_PORT", "6060")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != "6060" {
		t.Errorf("expected env to override file, got %s", cfg.HTTP.Port)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Store.SQLitePath = "" }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
		{"unknown recognizer", func(c *Config) { c.Recognizer.Provider = "whisper" }},
		{"bad sample rate", func(c *Config) { c.Recognizer.SampleRateHz = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvOrDefaultInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      int
		expected int
	}{
		{"valid", "44100", 16000, 44100},
		{"invalid", "not-a-number", 16000, 16000},
		{"empty", "", 16000, 16000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_INT_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultInt(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultInt(%s, %d) = %d, want %d", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
