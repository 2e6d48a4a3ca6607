// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	Voice         VoiceConfig
	Interaction   InteractionConfig
	Stress        StressConfig
	Kafka         KafkaConfig
	Redis         RedisConfig
	AudioLimits   AudioLimitsConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listeners.
type ServiceConfig struct {
	Principal string
	GRPCPort  string
	HTTPPort  string
}

// STTConfig selects and configures the transcript source.
type STTConfig struct {
	Provider       string // mock, google, remote
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
}

// VoiceConfig holds the wake word and session timing settings.
type VoiceConfig struct {
	AssistantName       string
	WakePhrases         []string
	ConfidenceThreshold float64
	CommandTimeout      time.Duration
	GraceDelay          time.Duration
	RestartDelay        time.Duration
}

// InteractionConfig sizes the telemetry buffers.
type InteractionConfig struct {
	BufferCapacity int
}

// StressConfig controls the periodic stress analysis.
type StressConfig struct {
	Interval       time.Duration
	Window         time.Duration
	ThresholdsFile string
}

// KafkaConfig configures the decision publisher.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicCommands    string
	TopicAdaptations string
	Principal        string
}

// RedisConfig configures the profile store.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// AudioLimitsConfig bounds server-side recognition runs.
type AudioLimitsConfig struct {
	MaxAudioBytes int64
	MaxFrameBytes int
	MaxDuration   time.Duration
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads the configuration from the environment.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-sense-core")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "remote"),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			InterimResults: envOrDefaultBool("STT_INTERIM_RESULTS", true),
			AudioEncoding:  envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
		},
		Voice: VoiceConfig{
			AssistantName:       envOrDefault("VOICE_ASSISTANT_NAME", "sense"),
			WakePhrases:         envOrDefaultList("VOICE_WAKE_PHRASES", nil),
			ConfidenceThreshold: envOrDefaultFloat("VOICE_CONFIDENCE_THRESHOLD", 0.7),
			CommandTimeout:      envOrDefaultDuration("VOICE_COMMAND_TIMEOUT", 10*time.Second),
			GraceDelay:          envOrDefaultDuration("VOICE_GRACE_DELAY", time.Second),
			RestartDelay:        envOrDefaultDuration("VOICE_RESTART_DELAY", 300*time.Millisecond),
		},
		Interaction: InteractionConfig{
			BufferCapacity: envOrDefaultInt("INTERACTION_BUFFER_CAPACITY", 150),
		},
		Stress: StressConfig{
			Interval:       envOrDefaultDuration("STRESS_INTERVAL", 3*time.Second),
			Window:         envOrDefaultDuration("STRESS_WINDOW", 60*time.Second),
			ThresholdsFile: envOrDefault("STRESS_THRESHOLDS_FILE", ""),
		},
		Kafka: KafkaConfig{
			Enabled:          envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:          envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicCommands:    envOrDefault("KAFKA_TOPIC_COMMANDS", "sense.commands"),
			TopicAdaptations: envOrDefault("KAFKA_TOPIC_ADAPTATIONS", "sense.adaptations"),
			Principal:        envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Redis: RedisConfig{
			Enabled:  envOrDefaultBool("REDIS_ENABLED", false),
			Addr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: envOrDefault("REDIS_PASSWORD", ""),
			DB:       envOrDefaultInt("REDIS_DB", 0),
			Prefix:   envOrDefault("REDIS_PREFIX", "sense:profile:"),
			TTL:      envOrDefaultDuration("REDIS_TTL", 0),
		},
		AudioLimits: AudioLimitsConfig{
			MaxAudioBytes: int64(envOrDefaultInt("AUDIO_MAX_BYTES", 5*1024*1024)),
			MaxFrameBytes: envOrDefaultInt("AUDIO_MAX_FRAME_BYTES", 64*1024),
			MaxDuration:   envOrDefaultDuration("AUDIO_MAX_DURATION", 5*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
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

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
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

// envOrDefaultList splits a comma-separated value, dropping empty items.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
