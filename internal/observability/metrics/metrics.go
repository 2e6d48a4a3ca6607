// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sense_core"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsActive    prometheus.Gauge
	RecognizerRestart prometheus.Counter
	RecognizerErrors  *prometheus.CounterVec

	// Transcript metrics
	TranscriptsInterim   prometheus.Counter
	TranscriptsFinal     prometheus.Counter
	LowConfidenceDropped prometheus.Counter

	// Command metrics
	WakeWords           prometheus.Counter
	CommandModeTimeouts prometheus.Counter
	Commands            *prometheus.CounterVec
	ClassificationMiss  prometheus.Counter

	// Stress and adaptation metrics
	InteractionsRecorded *prometheus.CounterVec
	StressScore          prometheus.Histogram
	StressScoreCurrent   prometheus.Gauge
	AdaptationChanges    *prometheus.CounterVec

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter
	AudioLimitExceeded  *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Gateway metrics
	WSConnections prometheus.Gauge

	// gRPC metrics
	GRPCRequests *prometheus.CounterVec
	GRPCLatency  *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_started_total",
			Help:      "Total number of voice sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_sessions_active",
			Help:      "Number of currently active voice sessions",
		}),
		RecognizerRestart: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognizer_restarts_total",
			Help:      "Total number of automatic recognizer restarts",
		}),
		RecognizerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognizer_errors_total",
			Help:      "Total number of recognizer errors by code",
		}, []string{"code"}),

		TranscriptsInterim: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_interim_total",
			Help:      "Total number of interim transcripts received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcripts received",
		}),
		LowConfidenceDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_low_confidence_total",
			Help:      "Final transcripts dropped below the confidence threshold",
		}),

		WakeWords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wake_words_total",
			Help:      "Total number of command mode entries",
		}),
		CommandModeTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_mode_timeouts_total",
			Help:      "Command mode exits caused by the expiry timer",
		}),
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of dispatched commands by type",
		}, []string{"type"}),
		ClassificationMiss: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_misses_total",
			Help:      "Utterances that matched no pattern",
		}),

		InteractionsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_recorded_total",
			Help:      "Interaction events recorded by type",
		}, []string{"type"}),
		StressScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stress_score",
			Help:      "Distribution of computed stress scores",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		StressScoreCurrent: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stress_score_current",
			Help:      "Most recently computed stress score",
		}),
		AdaptationChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adaptation_changes_total",
			Help:      "Adaptation key changes by key and source",
		}, []string{"key", "source"}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),
		AudioLimitExceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_limit_exceeded_total",
			Help:      "Total number of times audio limits were exceeded",
		}, []string{"limit_type"}),

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

		WSConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections_active",
			Help:      "Number of open websocket connections",
		}),

		GRPCRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC calls by method and status code",
		}, []string{"method", "code"}),
		GRPCLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// RecordSessionStart records a voice session becoming active.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a voice session becoming inactive.
func (m *Metrics) RecordSessionEnd() {
	m.SessionsActive.Dec()
}

// RecordRestart records an automatic recognizer restart.
func (m *Metrics) RecordRestart() {
	m.RecognizerRestart.Inc()
}

// RecordRecognizerError records a recognizer error.
func (m *Metrics) RecordRecognizerError(code string) {
	m.RecognizerErrors.WithLabelValues(code).Inc()
}

// RecordTranscript records an interim or final transcript.
func (m *Metrics) RecordTranscript(interim bool) {
	if interim {
		m.TranscriptsInterim.Inc()
		return
	}
	m.TranscriptsFinal.Inc()
}

// RecordLowConfidence records a dropped final transcript.
func (m *Metrics) RecordLowConfidence() {
	m.LowConfidenceDropped.Inc()
}

// RecordWakeWord records a command mode entry.
func (m *Metrics) RecordWakeWord() {
	m.WakeWords.Inc()
}

// RecordCommandModeTimeout records an expiry-driven command mode exit.
func (m *Metrics) RecordCommandModeTimeout() {
	m.CommandModeTimeouts.Inc()
}

// RecordCommand records a dispatched command.
func (m *Metrics) RecordCommand(commandType string) {
	m.Commands.WithLabelValues(commandType).Inc()
}

// RecordClassificationMiss records an utterance that matched nothing.
func (m *Metrics) RecordClassificationMiss() {
	m.ClassificationMiss.Inc()
}

// RecordInteraction records an accepted interaction event.
func (m *Metrics) RecordInteraction(eventType string) {
	m.InteractionsRecorded.WithLabelValues(eventType).Inc()
}

// RecordStressScore records a computed stress score.
func (m *Metrics) RecordStressScore(score int) {
	m.StressScore.Observe(float64(score))
	m.StressScoreCurrent.Set(float64(score))
}

// RecordAdaptationChange records one adaptation key flipping.
func (m *Metrics) RecordAdaptationChange(key, source string) {
	m.AdaptationChanges.WithLabelValues(key, source).Inc()
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordLimitExceeded records when an audio limit is exceeded.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.AudioLimitExceeded.WithLabelValues(limitType).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordWSConnection tracks websocket connections opening and closing.
func (m *Metrics) RecordWSConnection(open bool) {
	if open {
		m.WSConnections.Inc()
		return
	}
	m.WSConnections.Dec()
}

// RecordGRPCCall records one completed gRPC call.
func (m *Metrics) RecordGRPCCall(method, code string, seconds float64) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
	m.GRPCLatency.WithLabelValues(method).Observe(seconds)
}
