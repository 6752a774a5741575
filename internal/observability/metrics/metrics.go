// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "speech_transcriber"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Input metrics
	AudioChunksRead  prometheus.Counter
	AudioSamplesRead prometheus.Counter
	AudioReadErrors  prometheus.Counter

	// Activity metrics
	ChunksClassified *prometheus.CounterVec
	SegmentsStarted  prometheus.Counter

	// Buffer metrics
	BufferFill     prometheus.Gauge
	SamplesEvicted prometheus.Counter

	// Engine metrics
	EngineCalls   prometheus.Counter
	EngineErrors  prometheus.Counter
	EngineLatency prometheus.Histogram
	TokensDecoded prometheus.Counter
	TokensDropped prometheus.Counter

	// Record metrics
	RecordsEmitted prometheus.Counter
	EmitErrors     prometheus.Counter

	// Transcript event metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Input metrics
		AudioChunksRead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_read_total",
			Help:      "Total number of PCM chunks read from stdin",
		}),
		AudioSamplesRead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_samples_read_total",
			Help:      "Total mono samples read after downmix",
		}),
		AudioReadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_read_errors_total",
			Help:      "Total stdin read failures treated as end of stream",
		}),

		// Activity metrics
		ChunksClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_classified_total",
			Help:      "Total chunks classified by voice activity",
		}, []string{"activity"}),
		SegmentsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_started_total",
			Help:      "Total number of speech segments opened",
		}),

		// Buffer metrics
		BufferFill: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_fill_samples",
			Help:      "Current rolling window fill in samples",
		}),
		SamplesEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_samples_evicted_total",
			Help:      "Total samples evicted by the sliding window",
		}),

		// Engine metrics
		EngineCalls: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_calls_total",
			Help:      "Total transcription engine invocations",
		}),
		EngineErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Total transcription engine failures",
		}),
		EngineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_latency_seconds",
			Help:      "Transcription engine call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		TokensDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_decoded_total",
			Help:      "Total tokens returned by the engine",
		}),
		TokensDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_dropped_total",
			Help:      "Total accumulated tokens replaced during reconciliation",
		}),

		// Record metrics
		RecordsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Total transcription records written to stdout",
		}),
		EmitErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emit_errors_total",
			Help:      "Total failures writing records to stdout",
		}),

		// Transcript event metrics
		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total partial transcript events produced",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total final transcript events produced",
		}),

		// Kafka publish metrics
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
	}
}

// RecordChunkRead records one chunk arriving from stdin.
func (m *Metrics) RecordChunkRead(samples int) {
	m.AudioChunksRead.Inc()
	m.AudioSamplesRead.Add(float64(samples))
}

// RecordReadError records a stdin read failure.
func (m *Metrics) RecordReadError() {
	m.AudioReadErrors.Inc()
}

// RecordActivity records a chunk's voice activity classification.
func (m *Metrics) RecordActivity(activity string) {
	m.ChunksClassified.WithLabelValues(activity).Inc()
}

// RecordSegmentStart records a new speech segment opening.
func (m *Metrics) RecordSegmentStart() {
	m.SegmentsStarted.Inc()
}

// RecordBufferState records the rolling window state after an append.
func (m *Metrics) RecordBufferState(fill int, evictedDelta int64) {
	m.BufferFill.Set(float64(fill))
	if evictedDelta > 0 {
		m.SamplesEvicted.Add(float64(evictedDelta))
	}
}

// RecordEngineCall records one engine invocation.
func (m *Metrics) RecordEngineCall(tokens int, err error, latencySeconds float64) {
	m.EngineCalls.Inc()
	m.EngineLatency.Observe(latencySeconds)
	if err != nil {
		m.EngineErrors.Inc()
		return
	}
	m.TokensDecoded.Add(float64(tokens))
}

// RecordTokensDropped records tokens replaced during reconciliation.
func (m *Metrics) RecordTokensDropped(n int) {
	if n > 0 {
		m.TokensDropped.Add(float64(n))
	}
}

// RecordEmit records a record write attempt.
func (m *Metrics) RecordEmit(err error) {
	if err != nil {
		m.EmitErrors.Inc()
		return
	}
	m.RecordsEmitted.Inc()
}

// RecordPartialTranscript records a partial transcript event.
func (m *Metrics) RecordPartialTranscript() {
	m.TranscriptsPartial.Inc()
}

// RecordFinalTranscript records a final transcript event.
func (m *Metrics) RecordFinalTranscript() {
	m.TranscriptsFinal.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
