// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "transcript_revision"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Transform metrics
	TransformsTotal   prometheus.Counter
	TransformsFailed  prometheus.Counter
	TransformDuration prometheus.Histogram
	SegmentationTier  *prometheus.CounterVec

	// Merge metrics
	MergesTotal     prometheus.Counter
	MergesFailed    *prometheus.CounterVec
	WordsCorrected  prometheus.Counter
	IndexMismatches prometheus.Counter

	// Validation metrics
	RoundTripViolations prometheus.Counter

	// Version store metrics
	VersionOps       *prometheus.CounterVec
	VersionOpErrors  *prometheus.CounterVec
	VersionOpLatency *prometheus.HistogramVec
	VersionCacheHits *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TransformsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transforms_total",
			Help:      "Total number of recognizer-to-editor transforms",
		}),
		TransformsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transforms_failed_total",
			Help:      "Total number of failed transforms",
		}),
		TransformDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Duration of recognizer-to-editor transforms",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		SegmentationTier: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segmentation_tier_total",
			Help:      "Segmentation graphs built, by source tier",
		}, []string{"tier"}),

		MergesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Total number of correction merges",
		}),
		MergesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_failed_total",
			Help:      "Total number of failed merges",
		}, []string{"reason"}),
		WordsCorrected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_corrected_total",
			Help:      "Total number of word corrections merged",
		}),
		IndexMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_index_mismatches_total",
			Help:      "Merges where editor and recognizer word counts diverged",
		}),

		RoundTripViolations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "round_trip_violations_total",
			Help:      "Field-level round-trip integrity violations detected",
		}),

		VersionOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_ops_total",
			Help:      "Version store operations",
		}, []string{"op"}),
		VersionOpErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_op_errors_total",
			Help:      "Version store operation errors",
		}, []string{"op"}),
		VersionOpLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "version_op_latency_seconds",
			Help:      "Version store operation latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		VersionCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_cache_hits_total",
			Help:      "Version cache lookups, by outcome",
		}, []string{"outcome"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served",
		}, []string{"method", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method"}),
	}
}

// RecordTransform records a completed or failed transform.
func (m *Metrics) RecordTransform(err error, durationSeconds float64) {
	m.TransformsTotal.Inc()
	m.TransformDuration.Observe(durationSeconds)
	if err != nil {
		m.TransformsFailed.Inc()
	}
}

// RecordSegmentationTier records which granularity a segmentation graph was
// built from.
func (m *Metrics) RecordSegmentationTier(tier string) {
	if tier == "" {
		tier = "none"
	}
	m.SegmentationTier.WithLabelValues(tier).Inc()
}

// RecordMerge records a merge attempt with its changed-word count.
func (m *Metrics) RecordMerge(changedWords int, indexMismatch bool, err error) {
	m.MergesTotal.Inc()
	if err != nil {
		m.MergesFailed.WithLabelValues("rejected").Inc()
		return
	}
	m.WordsCorrected.Add(float64(changedWords))
	if indexMismatch {
		m.IndexMismatches.Inc()
	}
}

// RecordRoundTripViolations records integrity violations found by the
// validator.
func (m *Metrics) RecordRoundTripViolations(count int) {
	m.RoundTripViolations.Add(float64(count))
}

// RecordVersionOp records a version store operation.
func (m *Metrics) RecordVersionOp(op string, err error, latencySeconds float64) {
	m.VersionOps.WithLabelValues(op).Inc()
	m.VersionOpLatency.WithLabelValues(op).Observe(latencySeconds)
	if err != nil {
		m.VersionOpErrors.WithLabelValues(op).Inc()
	}
}

// RecordVersionCacheLookup records a version cache hit or miss.
func (m *Metrics) RecordVersionCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.VersionCacheHits.WithLabelValues(outcome).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, status string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, status).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(durationSeconds)
}
