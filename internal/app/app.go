// Package app assembles the service components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"sense-adaptive-core/internal/api/ws"
	"sense-adaptive-core/internal/config"
	"sense-adaptive-core/internal/events"
	"sense-adaptive-core/internal/observability"
	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/schema"
	"sense-adaptive-core/internal/service/adaptation"
	"sense-adaptive-core/internal/service/audio"
	"sense-adaptive-core/internal/service/command"
	"sense-adaptive-core/internal/service/sense"
	"sense-adaptive-core/internal/service/stress"
	"sense-adaptive-core/internal/service/stt"
	"sense-adaptive-core/internal/service/stt/google"
	"sense-adaptive-core/internal/service/stt/mock"
	"sense-adaptive-core/internal/service/stt/remote"
	"sense-adaptive-core/internal/service/voice"
	"sense-adaptive-core/internal/service/wakeword"
	"sense-adaptive-core/internal/store/profile"
)

// STT providers.
const (
	ProviderRemote = "remote"
	ProviderGoogle = "google"
	ProviderMock   = "mock"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Interpreter *command.Interpreter
	Scorer      *stress.Scorer
	Validator   *schema.Validator
	Publisher   *events.Publisher
	Profiles    adaptation.ProfileStore
	Gateway     *ws.Gateway

	closers []func() error
	checks  map[string]observability.Check
	ready   atomic.Bool
}

// ErrNotReady is reported by the readiness check before Start and after Shutdown.
var ErrNotReady = errors.New("application not ready")

// New constructs the Application from cfg. It fails when a configured
// dependency cannot be reached.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg:       cfg,
		Logger:    logging.WithComponent("application"),
		Validator: schema.New(),
		checks:    make(map[string]observability.Check),
	}

	thresholds, err := stress.LoadThresholds(cfg.Stress.ThresholdsFile)
	if err != nil {
		return nil, err
	}
	a.Scorer = stress.NewScorer(thresholds)
	a.Interpreter = command.NewInterpreter(wakeword.New(cfg.Voice.AssistantName, cfg.Voice.WakePhrases...), nil)

	a.Publisher = events.New(&events.Config{
		Enabled:          cfg.Kafka.Enabled,
		Brokers:          cfg.Kafka.Brokers,
		TopicCommands:    cfg.Kafka.TopicCommands,
		TopicAdaptations: cfg.Kafka.TopicAdaptations,
		Principal:        cfg.Kafka.Principal,
	})
	a.closers = append(a.closers, a.Publisher.Close)

	if cfg.Redis.Enabled {
		store, err := profile.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, profile.Config{
			Prefix: cfg.Redis.Prefix,
			TTL:    cfg.Redis.TTL,
		})
		if err != nil {
			a.Shutdown()
			return nil, err
		}
		a.Profiles = store
		a.closers = append(a.closers, store.Close)
		a.checks["redis"] = store.Ping
	} else {
		a.Profiles = adaptation.NewMemoryProfileStore()
	}

	factory, err := a.SourceFactory()
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.Gateway = ws.NewGateway(a.SenseConfig(thresholds), factory,
		ws.WithPublisher(a.Publisher),
		ws.WithProfileStore(a.Profiles),
	)
	a.closers = append(a.closers, func() error {
		a.Gateway.Close()
		return nil
	})

	a.Logger.Info().
		Str("sttProvider", cfg.STT.Provider).
		Bool("kafka", cfg.Kafka.Enabled).
		Bool("redis", cfg.Redis.Enabled).
		Msg("Sense core application created")
	return a, nil
}

// SenseConfig builds the per-session template from configuration.
func (a *Application) SenseConfig(t stress.Thresholds) sense.Config {
	cfg := a.Cfg
	return sense.Config{
		Voice: voice.Config{
			ConfidenceThreshold: cfg.Voice.ConfidenceThreshold,
			CommandTimeout:      cfg.Voice.CommandTimeout,
			GraceDelay:          cfg.Voice.GraceDelay,
			RestartDelay:        cfg.Voice.RestartDelay,
		},
		AssistantName:  cfg.Voice.AssistantName,
		WakePhrases:    cfg.Voice.WakePhrases,
		BufferCapacity: cfg.Interaction.BufferCapacity,
		Interval:       cfg.Stress.Interval,
		Window:         cfg.Stress.Window,
		Thresholds:     t,
	}
}

// SourceFactory returns the per-connection source constructor for the
// configured provider.
func (a *Application) SourceFactory() (ws.SourceFactory, error) {
	cfg := a.Cfg
	switch cfg.STT.Provider {
	case ProviderRemote:
		return func(_ context.Context, _ string, control func(string) error) (stt.Source, error) {
			return remote.New(control), nil
		}, nil

	case ProviderMock:
		return func(context.Context, string, func(string) error) (stt.Source, error) {
			return mock.New(mock.DefaultUtterances, 150*time.Millisecond), nil
		}, nil

	case ProviderGoogle:
		limits := audio.Limits{
			MaxAudioBytes: cfg.AudioLimits.MaxAudioBytes,
			MaxFrameBytes: cfg.AudioLimits.MaxFrameBytes,
			MaxDuration:   cfg.AudioLimits.MaxDuration,
		}
		gcfg := google.Config{
			LanguageCode:   cfg.STT.LanguageCode,
			SampleRateHz:   int32(cfg.STT.SampleRateHz),
			InterimResults: cfg.STT.InterimResults,
			AudioEncoding:  cfg.STT.AudioEncoding,
		}
		return func(ctx context.Context, sessionID string, _ func(string) error) (stt.Source, error) {
			src, err := google.New(ctx, gcfg)
			if err != nil {
				return nil, fmt.Errorf("google stt: %w", err)
			}
			return audio.NewForwarder(src, limits, sessionID), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STT.Provider)
	}
}

// Start marks the application ready to serve traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Sense core starting")
	return nil
}

// Ready reports whether Start has completed and Shutdown has not begun.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Checks returns the readiness checks for the observability server.
func (a *Application) Checks() map[string]observability.Check {
	out := map[string]observability.Check{
		"app": func(context.Context) error {
			if !a.Ready() {
				return ErrNotReady
			}
			return nil
		},
	}
	for name, c := range a.checks {
		out[name] = c
	}
	return out
}

// Shutdown releases every dependency in reverse order of creation.
func (a *Application) Shutdown() {
	a.ready.Store(false)
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn().Err(err).Msg("Error during shutdown")
		}
	}
	a.closers = nil
	a.Logger.Info().Msg("Sense core shut down")
}
