// Package voice implements the always-listening session controller: it owns the
// transcript source lifecycle, the wake-word protocol, the command mode timer and
// automatic recognizer restarts.
package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/observability/metrics"
	"sense-adaptive-core/internal/service/command"
	"sense-adaptive-core/internal/service/session"
	"sense-adaptive-core/internal/service/stt"
)

// Config holds the timing and confidence settings of a session.
type Config struct {
	SessionID           string
	ConfidenceThreshold float64
	CommandTimeout      time.Duration
	GraceDelay          time.Duration
	RestartDelay        time.Duration
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		SessionID:           "local",
		ConfidenceThreshold: 0.7,
		CommandTimeout:      10 * time.Second,
		GraceDelay:          time.Second,
		RestartDelay:        300 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SessionID == "" {
		c.SessionID = def.SessionID
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = def.CommandTimeout
	}
	if c.GraceDelay <= 0 {
		c.GraceDelay = def.GraceDelay
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = def.RestartDelay
	}
	return c
}

// Controller supervises one voice session.
//
// All state is guarded by mu. Listener callbacks are collected while the lock
// is held and invoked after it is released. There is exactly one mode timer
// (command mode expiry or post-dispatch grace) and one restart timer; each
// carries a generation number so a cancelled timer that fires late does nothing.
type Controller struct {
	cfg         Config
	source      stt.Source
	interpreter *command.Interpreter
	permission  PermissionRequester
	listener    Listener
	lifecycle   *session.Lifecycle
	ids         *session.Generator
	log         zerolog.Logger
	metrics     *metrics.Metrics

	mu           sync.Mutex
	active       bool
	starting     bool
	runCtx       context.Context
	cancelRun    context.CancelFunc
	pageCtx      command.Context
	modeTimer    *time.Timer
	modeGen      uint64
	restartTimer *time.Timer
	restartGen   uint64
}

// NewController creates an idle controller. A nil permission requester grants
// access, a nil listener discards events and a nil interpreter uses defaults.
func NewController(cfg Config, source stt.Source, interpreter *command.Interpreter, permission PermissionRequester, listener Listener) *Controller {
	cfg = cfg.withDefaults()
	if interpreter == nil {
		interpreter = command.NewInterpreter(nil, nil)
	}
	if permission == nil {
		permission = AlwaysGranted
	}
	if listener == nil {
		listener = NopListener{}
	}
	return &Controller{
		cfg:         cfg,
		source:      source,
		interpreter: interpreter,
		permission:  permission,
		listener:    listener,
		lifecycle:   session.NewLifecycle(),
		ids:         session.NewGenerator(),
		log:         logging.WithSession(cfg.SessionID).With().Str("component", "voice").Logger(),
		metrics:     metrics.DefaultMetrics,
	}
}

// notifications are listener calls deferred until the lock is released.
type notifications []func()

func (n notifications) run() {
	for _, fn := range n {
		fn()
	}
}

// Start requests microphone permission and begins listening. Calling Start
// while active (or while a Start is pending) is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.active || c.starting {
		c.mu.Unlock()
		return nil
	}
	c.starting = true
	c.mu.Unlock()

	permErr := c.permission.RequestMicrophone(ctx)

	c.mu.Lock()
	c.starting = false
	if permErr != nil {
		err := fmt.Errorf("%w: %w", ErrPermissionDenied, permErr)
		c.lifecycle.Fail()
		status := c.statusLocked()
		c.mu.Unlock()

		c.log.Warn().Err(permErr).Msg("Microphone permission denied")
		c.listener.OnStatusChange(status)
		c.listener.OnError(err)
		return err
	}

	c.lifecycle.Reset()
	_ = c.lifecycle.Listen()
	c.active = true
	c.runCtx, c.cancelRun = context.WithCancel(context.WithoutCancel(ctx))
	runCtx := c.runCtx
	status := c.statusLocked()
	c.mu.Unlock()

	c.metrics.RecordSessionStart()
	c.log.Info().Msg("Voice session started")
	c.listener.OnStatusChange(status)

	return c.startSource(runCtx)
}

// Stop deactivates the session, cancels every timer and stops the source.
// Safe to call from any state, including from inside a listener callback.
func (c *Controller) Stop() {
	c.mu.Lock()
	wasActive := c.active
	prev := c.lifecycle.State()
	c.active = false
	c.cancelTimersLocked()
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	c.lifecycle.Reset()
	status := c.statusLocked()
	c.mu.Unlock()

	if c.source != nil {
		if err := c.source.Stop(); err != nil {
			c.log.Debug().Err(err).Msg("Source stop failed")
		}
	}

	if wasActive {
		c.metrics.RecordSessionEnd()
		c.log.Info().Msg("Voice session stopped")
	}
	if wasActive || prev != models.SessionStateIdle {
		c.listener.OnStatusChange(status)
	}
}

// ProcessCommand classifies text with the current command mode flag. It does
// not dispatch or touch timers.
func (c *Controller) ProcessCommand(text string) models.Command {
	c.mu.Lock()
	inCommandMode := c.lifecycle.InCommandMode()
	pageCtx := c.pageCtx
	c.mu.Unlock()

	cmd := c.interpreter.ProcessInContext(text, inCommandMode, pageCtx)
	cmd.ID = c.ids.Next(c.cfg.SessionID)
	return cmd
}

// SetContext records where the consumer currently is, for contextual commands.
func (c *Controller) SetContext(cctx command.Context) {
	c.mu.Lock()
	c.pageCtx = cctx
	c.mu.Unlock()
}

// Status returns the current status snapshot.
func (c *Controller) Status() models.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// State returns the current session state.
func (c *Controller) State() models.SessionState {
	return c.lifecycle.State()
}

// IsActive reports whether the session is active.
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SessionID returns the configured session ID.
func (c *Controller) SessionID() string {
	return c.cfg.SessionID
}

func (c *Controller) statusLocked() models.Status {
	return models.Status{
		State:       c.lifecycle.State(),
		Listening:   c.active && c.lifecycle.IsListening(),
		Active:      c.active,
		CommandMode: c.lifecycle.InCommandMode(),
	}
}

// startSource starts a recognition run outside the lock. Some sources report
// OnStart synchronously from Start.
func (c *Controller) startSource(runCtx context.Context) error {
	if c.source == nil {
		return nil
	}
	err := c.source.Start(runCtx, sourceCallback{c})
	if err == nil {
		return nil
	}

	if stt.IsTransient(err) {
		c.log.Debug().Err(err).Msg("Source start failed, retrying")
		c.mu.Lock()
		if c.active {
			c.scheduleRestartLocked()
		}
		c.mu.Unlock()
		return nil
	}
	return c.fail(err)
}

// fail surfaces an unrecoverable recognizer error and leaves the session in
// ERROR until the next Start.
func (c *Controller) fail(cause error) error {
	var err error
	switch stt.Code(cause) {
	case stt.CodeNotAllowed, stt.CodeServiceDown:
		err = fmt.Errorf("%w: %w", ErrPermissionDenied, cause)
	default:
		err = fmt.Errorf("%w: %w", ErrRecognizerFatal, cause)
	}

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return err
	}
	c.active = false
	c.cancelTimersLocked()
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	c.lifecycle.Fail()
	status := c.statusLocked()
	c.mu.Unlock()

	if c.source != nil {
		_ = c.source.Stop()
	}
	c.metrics.RecordSessionEnd()
	c.log.Error().Err(cause).Msg("Recognizer failed, session stopped")
	c.listener.OnStatusChange(status)
	c.listener.OnError(err)
	return err
}

func (c *Controller) cancelTimersLocked() {
	c.modeGen++
	if c.modeTimer != nil {
		c.modeTimer.Stop()
		c.modeTimer = nil
	}
	c.restartGen++
	if c.restartTimer != nil {
		c.restartTimer.Stop()
		c.restartTimer = nil
	}
}

// armModeTimerLocked replaces the single mode timer. timeout marks an expiry
// timer as opposed to a post-dispatch grace timer.
func (c *Controller) armModeTimerLocked(d time.Duration, timeout bool) {
	if c.modeTimer != nil {
		c.modeTimer.Stop()
	}
	c.modeGen++
	gen := c.modeGen
	c.modeTimer = time.AfterFunc(d, func() { c.exitCommandMode(gen, timeout) })
}

func (c *Controller) exitCommandMode(gen uint64, timeout bool) {
	c.mu.Lock()
	if gen != c.modeGen || !c.active {
		c.mu.Unlock()
		return
	}
	c.modeTimer = nil
	if !c.lifecycle.ExitCommandMode() {
		c.mu.Unlock()
		return
	}
	status := c.statusLocked()
	c.mu.Unlock()

	if timeout {
		c.metrics.RecordCommandModeTimeout()
		c.log.Debug().Msg("Command mode expired")
	}
	c.listener.OnStatusChange(status)
}

// enterCommandModeLocked enters or re-enters command mode with a fresh expiry
// timer. OnWakeWord fires only on entry.
func (c *Controller) enterCommandModeLocked(ns *notifications) {
	wasInCommandMode := c.lifecycle.InCommandMode()
	if err := c.lifecycle.EnterCommandMode(); err != nil {
		c.log.Debug().Err(err).Msg("Command mode entry rejected")
		return
	}
	c.armModeTimerLocked(c.cfg.CommandTimeout, true)
	status := c.statusLocked()
	if !wasInCommandMode {
		c.metrics.RecordWakeWord()
		*ns = append(*ns, c.listener.OnWakeWord)
	}
	*ns = append(*ns, func() { c.listener.OnStatusChange(status) })
}

func (c *Controller) scheduleRestartLocked() {
	if c.restartTimer != nil {
		c.restartTimer.Stop()
	}
	c.restartGen++
	gen := c.restartGen
	c.restartTimer = time.AfterFunc(c.cfg.RestartDelay, func() { c.restart(gen) })
}

func (c *Controller) restart(gen uint64) {
	c.mu.Lock()
	if gen != c.restartGen || !c.active {
		c.mu.Unlock()
		return
	}
	c.restartTimer = nil
	runCtx := c.runCtx
	c.mu.Unlock()

	c.metrics.RecordRestart()
	c.log.Debug().Msg("Restarting recognizer")
	_ = c.startSource(runCtx)
}

func (c *Controller) handlePartial(text string) {
	c.metrics.RecordTranscript(true)

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	ns := notifications{func() { c.listener.OnTranscript(text, true) }}
	if !c.lifecycle.InCommandMode() && c.interpreter.Gate().Detect(text) {
		c.enterCommandModeLocked(&ns)
	}
	c.mu.Unlock()

	ns.run()
}

func (c *Controller) handleFinal(text string, confidence float64) {
	c.metrics.RecordTranscript(false)

	if !c.IsActive() {
		return
	}
	c.listener.OnTranscript(text, false)

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	var ns notifications
	defer func() { ns.run() }()
	defer c.mu.Unlock()

	if confidence < c.cfg.ConfidenceThreshold {
		c.metrics.RecordLowConfidence()
		c.log.Debug().
			Err(ErrLowConfidence).
			Float64("confidence", confidence).
			Float64("threshold", c.cfg.ConfidenceThreshold).
			Msg("Final transcript dropped")
		return
	}

	gate := c.interpreter.Gate()
	detected := gate.Detect(text)
	inCommandMode := c.lifecycle.InCommandMode()
	if !inCommandMode && !detected {
		return
	}

	if detected && gate.Strip(text) == "" {
		c.enterCommandModeLocked(&ns)
		return
	}

	if !inCommandMode {
		c.enterCommandModeLocked(&ns)
	}
	if err := c.lifecycle.BeginProcessing(); err != nil {
		c.log.Warn().Err(err).Str("state", string(c.lifecycle.State())).Msg("Final transcript ignored")
		return
	}
	processing := c.statusLocked()
	ns = append(ns, func() { c.listener.OnStatusChange(processing) })

	cmd := c.interpreter.ProcessInContext(text, true, c.pageCtx)
	cmd.ID = c.ids.Next(c.cfg.SessionID)

	c.lifecycle.EndProcessing()
	c.armModeTimerLocked(c.cfg.GraceDelay, false)
	back := c.statusLocked()

	c.metrics.RecordCommand(string(cmd.Type))
	logger := logging.WithUtterance(c.cfg.SessionID, cmd.ID)
	if cmd.Type == models.CommandUnknown {
		c.metrics.RecordClassificationMiss()
		logger.Info().Err(ErrClassificationMiss).Str("text", text).Msg("Command not recognized")
	} else {
		logger.Info().
			Str("type", string(cmd.Type)).
			Str("action", cmd.Action).
			Str("route", cmd.Route).
			Msg("Command dispatched")
	}

	ns = append(ns,
		func() { c.listener.OnStatusChange(back) },
		func() { c.listener.OnCommand(cmd, text) },
	)
}

func (c *Controller) handleError(err error) {
	code := stt.Code(err)
	if code == "" {
		code = "unknown"
	}
	c.metrics.RecordRecognizerError(code)

	if stt.IsTransient(err) {
		c.log.Debug().Err(fmt.Errorf("%w: %w", ErrRecognizerTransient, err)).Str("code", code).Msg("Recognizer error, will restart")
		return
	}
	_ = c.fail(err)
}

func (c *Controller) handleEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.scheduleRestartLocked()
}

// sourceCallback adapts the controller to stt.Callback without exporting the
// recognizer hooks on Controller itself.
type sourceCallback struct {
	c *Controller
}

func (s sourceCallback) OnStart() {
	s.c.log.Debug().Msg("Recognizer started")
}

func (s sourceCallback) OnPartial(text string, _ float64) {
	s.c.handlePartial(text)
}

func (s sourceCallback) OnFinal(text string, confidence float64) {
	s.c.handleFinal(text, confidence)
}

func (s sourceCallback) OnError(err error) {
	if err == nil {
		return
	}
	s.c.handleError(err)
}

func (s sourceCallback) OnEnd() {
	s.c.handleEnd()
}

var _ stt.Callback = sourceCallback{}
