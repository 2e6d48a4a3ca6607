// Package sense wires the voice session, the interaction recorder, the stress
// analyzer and the adaptation engine into the single object a consumer embeds.
package sense

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/observability/metrics"
	"sense-adaptive-core/internal/service/adaptation"
	"sense-adaptive-core/internal/service/command"
	"sense-adaptive-core/internal/service/interaction"
	"sense-adaptive-core/internal/service/stress"
	"sense-adaptive-core/internal/service/stt"
	"sense-adaptive-core/internal/service/voice"
	"sense-adaptive-core/internal/service/wakeword"
)

const publishTimeout = 5 * time.Second

// EventPublisher receives commands and adaptation decisions for downstream
// consumers. Implementations must be safe for concurrent use.
type EventPublisher interface {
	PublishCommand(ctx context.Context, sessionID string, cmd models.Command) error
	PublishAdaptation(ctx context.Context, sessionID string, d models.AdaptationDecision) error
}

// Config collects the settings of every component.
type Config struct {
	Voice          voice.Config
	AssistantName  string
	WakePhrases    []string
	BufferCapacity int
	Interval       time.Duration
	Window         time.Duration
	Thresholds     stress.Thresholds
	Profile        models.NeurodiversityProfile
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		Voice:          voice.DefaultConfig(),
		AssistantName:  wakeword.DefaultName,
		BufferCapacity: interaction.DefaultCapacity,
		Interval:       stress.DefaultInterval,
		Window:         stress.DefaultWindow,
		Thresholds:     stress.DefaultThresholds(),
	}
}

// Deps are the capabilities supplied by the host. Only Source is required for
// voice; every other field may be nil.
type Deps struct {
	Source     stt.Source
	Permission voice.PermissionRequester
	Listener   voice.Listener
	Sink       adaptation.AdaptationSink // must not call Stop

	Publisher EventPublisher
}

// Core is one user's adaptive session.
type Core struct {
	cfg        Config
	listener   voice.Listener
	sink       adaptation.AdaptationSink
	publisher  EventPublisher
	controller *voice.Controller
	recorder   *interaction.Recorder
	analyzer   *stress.Analyzer
	engine     *adaptation.Engine
	log        zerolog.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	baseCtx context.Context
	pending sync.WaitGroup

	// analysisMu orders analyzer starts against Stop.
	analysisMu sync.Mutex
}

// New assembles a Core. It does not start listening.
func New(cfg Config, deps Deps) *Core {
	if cfg.Thresholds == (stress.Thresholds{}) {
		cfg.Thresholds = stress.DefaultThresholds()
	}
	if deps.Listener == nil {
		deps.Listener = voice.NopListener{}
	}

	c := &Core{
		cfg:       cfg,
		listener:  deps.Listener,
		sink:      deps.Sink,
		publisher: deps.Publisher,
		recorder:  interaction.NewRecorder(cfg.BufferCapacity),
		log:       logging.WithSession(cfg.Voice.SessionID).With().Str("component", "sense").Logger(),
		metrics:   metrics.DefaultMetrics,
		baseCtx:   context.Background(),
	}

	c.engine = adaptation.NewEngine(cfg.Profile, adaptation.WithSink(adaptation.SinkFunc(c.onAdaptation)))
	c.analyzer = stress.NewAnalyzer(c.recorder, stress.NewScorer(cfg.Thresholds), cfg.Interval, cfg.Window, c.onStress)

	gate := wakeword.New(cfg.AssistantName, cfg.WakePhrases...)
	interpreter := command.NewInterpreter(gate, nil)
	c.controller = voice.NewController(cfg.Voice, deps.Source, interpreter, deps.Permission, coreListener{c})
	return c
}

// Start begins the voice session. Stress analysis runs while the session is active.
func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	c.baseCtx = context.WithoutCancel(ctx)
	c.mu.Unlock()
	return c.controller.Start(ctx)
}

// Stop ends the voice session and the stress analysis.
func (c *Core) Stop() {
	c.controller.Stop()
	c.analysisMu.Lock()
	c.analyzer.Stop()
	c.analysisMu.Unlock()
}

// Close stops the session and waits for in-flight publishes.
func (c *Core) Close() {
	c.Stop()
	c.pending.Wait()
}

// RecordInteraction appends one telemetry event.
func (c *Core) RecordInteraction(ev models.InteractionEvent) error {
	return c.recorder.Record(ev)
}

// SetProfile replaces the neurodiversity profile used by the profile rules.
func (c *Core) SetProfile(p models.NeurodiversityProfile) {
	c.engine.SetProfile(p)
}

// ApplyAccessibilityOverride pins an adaptation to the requested value.
func (c *Core) ApplyAccessibilityOverride(key models.AdaptationKey, enabled bool) (models.AdaptationDecision, error) {
	return c.engine.ApplyOverride(key, enabled)
}

// ProcessCommand classifies typed text as if it had been spoken and applies
// its side effects. The command is returned rather than sent to the listener.
func (c *Core) ProcessCommand(text string) models.Command {
	cmd := c.controller.ProcessCommand(text)
	c.apply(cmd)
	if cmd.Deactivate {
		c.Stop()
	}
	return cmd
}

// SetContext records the consumer's current page for contextual commands.
func (c *Core) SetContext(cctx command.Context) {
	c.controller.SetContext(cctx)
}

// Adaptations returns a copy of the current adaptation state.
func (c *Core) Adaptations() models.AdaptationState {
	return c.engine.State()
}

// Status returns the voice session status.
func (c *Core) Status() models.Status {
	return c.controller.Status()
}

// SessionID returns the voice session ID.
func (c *Core) SessionID() string {
	return c.controller.SessionID()
}

// Stress returns the most recent stress result, if analysis has run.
func (c *Core) Stress() (stress.Result, bool) {
	return c.analyzer.Last()
}

// AnalyzeNow runs one stress tick immediately.
func (c *Core) AnalyzeNow() stress.Result {
	return c.analyzer.TickOnce()
}

// Recorder exposes the interaction recorder.
func (c *Core) Recorder() *interaction.Recorder { return c.recorder }

// apply turns accessibility commands into overrides and publishes the command.
func (c *Core) apply(cmd models.Command) {
	if cmd.Type == models.CommandAccessibility && cmd.Accessibility != nil {
		if _, err := c.engine.ApplyOverride(cmd.Accessibility.Key, cmd.Accessibility.Enabled); err != nil {
			c.log.Warn().Err(err).Str("key", string(cmd.Accessibility.Key)).Msg("Ignoring accessibility command")
		}
	}
	if cmd.Type != models.CommandWakeWordNeeded {
		c.publish(func(ctx context.Context, p EventPublisher) error {
			return p.PublishCommand(ctx, c.SessionID(), cmd)
		})
	}
}

func (c *Core) onStress(res stress.Result) {
	c.engine.ApplyStress(res.Score)
}

func (c *Core) onAdaptation(d models.AdaptationDecision) {
	if c.sink != nil {
		c.sink.OnAdaptation(d)
	}
	c.publish(func(ctx context.Context, p EventPublisher) error {
		return p.PublishAdaptation(ctx, c.SessionID(), d)
	})
}

func (c *Core) publish(fn func(context.Context, EventPublisher) error) {
	if c.publisher == nil {
		return
	}
	c.mu.Lock()
	base := c.baseCtx
	c.mu.Unlock()

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(base, publishTimeout)
		defer cancel()
		if err := fn(ctx, c.publisher); err != nil {
			c.log.Warn().Err(err).Msg("Publish failed")
		}
	}()
}

// onStatus starts or stops the analyzer. A snapshot may arrive late from a
// timer goroutine, so the controller is asked whether it is still active.
func (c *Core) onStatus(st models.Status) {
	c.analysisMu.Lock()
	defer c.analysisMu.Unlock()
	if st.Active && c.controller.IsActive() {
		c.mu.Lock()
		base := c.baseCtx
		c.mu.Unlock()
		c.analyzer.Start(base)
	} else {
		c.analyzer.Stop()
	}
}

// coreListener intercepts controller events before they reach the consumer.
type coreListener struct{ c *Core }

func (l coreListener) OnTranscript(text string, interim bool) {
	l.c.listener.OnTranscript(text, interim)
}

func (l coreListener) OnWakeWord() { l.c.listener.OnWakeWord() }

func (l coreListener) OnCommand(cmd models.Command, raw string) {
	l.c.apply(cmd)
	l.c.listener.OnCommand(cmd, raw)
	if cmd.Deactivate {
		l.c.Stop()
	}
}

func (l coreListener) OnStatusChange(st models.Status) {
	l.c.onStatus(st)
	l.c.listener.OnStatusChange(st)
}

func (l coreListener) OnError(err error) {
	if errors.Is(err, voice.ErrPermissionDenied) || errors.Is(err, voice.ErrRecognizerFatal) {
		l.c.analyzer.Stop()
	}
	l.c.listener.OnError(err)
}

var _ voice.Listener = coreListener{}
