// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"transcript-revision-service/internal/observability/metrics"
)

// VersionSavedEvent is emitted when a new transcript version is stored.
type VersionSavedEvent struct {
	EventType    string `json:"eventType"`
	TranscriptID string `json:"transcriptId"`
	Version      int    `json:"version"`
	Changes      string `json:"changes"`
	Timestamp    string `json:"timestamp"`
}

// CorrectionMergedEvent is emitted when editor corrections are merged back
// into a transcript document.
type CorrectionMergedEvent struct {
	EventType      string `json:"eventType"`
	TranscriptID   string `json:"transcriptId"`
	ChangedWords   int    `json:"changedWords"`
	SpeakerRenames int    `json:"speakerRenames"`
	Version        int    `json:"version"`
	Timestamp      string `json:"timestamp"`
}

// Publisher publishes revision events to separate Kafka topics.
type Publisher struct {
	writerVersion    *kafka.Writer
	writerCorrection *kafka.Writer
	principal        string
	topicVersion     string
	topicCorrection  string
	enabled          bool
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicVersion    string
	TopicCorrection string
	Principal       string
	Enabled         bool
}

// New creates a new Kafka event publisher with separate topics for saved
// versions and merged corrections.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	// Handle nil config case
	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicVersion:    cfg.TopicVersion,
			topicCorrection: cfg.TopicCorrection,
			enabled:         false,
			metrics:         m,
		}
	}

	// Create a custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerVersion := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicVersion,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerCorrection := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicCorrection,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicVersion", cfg.TopicVersion).
		Str("topicCorrection", cfg.TopicCorrection).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerVersion:    writerVersion,
		writerCorrection: writerCorrection,
		principal:        cfg.Principal,
		topicVersion:     cfg.TopicVersion,
		topicCorrection:  cfg.TopicCorrection,
		enabled:          true,
		metrics:          m,
	}
}

// PublishVersionSaved publishes a version-saved event keyed by transcript.
func (p *Publisher) PublishVersionSaved(ctx context.Context, event VersionSavedEvent) error {
	return p.publish(ctx, p.writerVersion, p.topicVersion, "version_saved", event.TranscriptID, event)
}

// PublishCorrectionMerged publishes a correction-merged event keyed by
// transcript.
func (p *Publisher) PublishCorrectionMerged(ctx context.Context, event CorrectionMergedEvent) error {
	return p.publish(ctx, p.writerCorrection, p.topicCorrection, "correction_merged", event.TranscriptID, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerVersion != nil {
		if e := p.writerVersion.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing version writer")
			err = e
		}
	}
	if p.writerCorrection != nil {
		if e := p.writerCorrection.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing correction writer")
			err = e
		}
	}
	return err
}
