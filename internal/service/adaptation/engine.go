// Package adaptation owns the adaptation state and merges stress-driven and
// explicit requests into it.
package adaptation

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/observability/metrics"
)

// ErrUnknownAdaptation is returned for override keys that are not recognized.
var ErrUnknownAdaptation = errors.New("unknown adaptation key")

// AdaptationSink receives every decision that changed the state, in the order
// the decisions were made. Sinks must not mutate the engine.
type AdaptationSink interface {
	OnAdaptation(decision models.AdaptationDecision)
}

// SinkFunc adapts a function to AdaptationSink.
type SinkFunc func(models.AdaptationDecision)

func (f SinkFunc) OnAdaptation(d models.AdaptationDecision) { f(d) }

// Engine is the only writer of the adaptation state. Precedence, highest
// first: explicit overrides, profile rules, global stress bands. Stress can
// only turn adaptations on; only an override turns one off.
type Engine struct {
	mu        sync.Mutex
	rules     []Rule
	profile   models.NeurodiversityProfile
	state     models.AdaptationState
	overrides map[models.AdaptationKey]bool
	lastScore int
	sinks     []AdaptationSink
	issued    uint64
	now       func() time.Time
	log       zerolog.Logger
	metrics   *metrics.Metrics

	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRules replaces the default rule set.
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithSink registers an additional sink.
func WithSink(s AdaptationSink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sinks = append(e.sinks, s)
		}
	}
}

// WithClock overrides the decision timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine with every adaptation off.
func NewEngine(profile models.NeurodiversityProfile, opts ...Option) *Engine {
	e := &Engine{
		rules:     DefaultRules(),
		profile:   profile,
		state:     make(models.AdaptationState, len(models.AdaptationKeys)),
		overrides: make(map[models.AdaptationKey]bool),
		now:       time.Now,
		log:       logging.WithComponent("adaptation"),
		metrics:   metrics.DefaultMetrics,
	}
	e.notifyCond = sync.NewCond(&e.notifyMu)
	for _, k := range models.AdaptationKeys {
		e.state[k] = false
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetProfile replaces the profile. It takes effect on the next stress merge.
func (e *Engine) SetProfile(p models.NeurodiversityProfile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = p
}

// Profile returns the current profile.
func (e *Engine) Profile() models.NeurodiversityProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// State returns a copy of the adaptation state.
func (e *Engine) State() models.AdaptationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Overrides returns a copy of the explicit overrides.
func (e *Engine) Overrides() map[models.AdaptationKey]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[models.AdaptationKey]bool, len(e.overrides))
	for k, v := range e.overrides {
		out[k] = v
	}
	return out
}

// ApplyStress merges the rules triggered by score.
func (e *Engine) ApplyStress(score int) models.AdaptationDecision {
	return e.merge(input{source: models.AdaptationSourceStress, score: score})
}

// ApplyOverride records an explicit user request. The key takes the requested
// value immediately and keeps it regardless of later stress readings.
func (e *Engine) ApplyOverride(key models.AdaptationKey, enabled bool) (models.AdaptationDecision, error) {
	if !key.Valid() {
		return models.AdaptationDecision{}, fmt.Errorf("%w: %q", ErrUnknownAdaptation, key)
	}
	return e.merge(input{source: models.AdaptationSourceOverride, key: key, enabled: enabled}), nil
}

// ClearOverride releases an explicit override. The key keeps its current
// value until stress or another override changes it.
func (e *Engine) ClearOverride(key models.AdaptationKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.overrides, key)
}

type input struct {
	source  models.AdaptationSource
	score   int
	key     models.AdaptationKey
	enabled bool
}

// merge is the single mutation entry point for both input paths.
func (e *Engine) merge(in input) models.AdaptationDecision {
	e.mu.Lock()

	next := e.state.Clone()
	var triggers []string

	switch in.source {
	case models.AdaptationSourceStress:
		e.lastScore = in.score
		var keys []models.AdaptationKey
		keys, triggers = Evaluate(e.rules, in.score, e.profile)
		for _, k := range keys {
			if _, pinned := e.overrides[k]; pinned {
				continue
			}
			next[k] = true
		}
	case models.AdaptationSourceOverride:
		e.overrides[in.key] = in.enabled
		triggers = []string{fmt.Sprintf("override:%s=%t", in.key, in.enabled)}
	}

	for k, v := range e.overrides {
		next[k] = v
	}

	changed := diff(e.state, next)
	e.state = next
	decision := models.AdaptationDecision{
		State:       next.Clone(),
		Changed:     changed,
		Triggers:    triggers,
		StressScore: e.lastScore,
		Source:      in.source,
		Timestamp:   e.now(),
	}
	if len(changed) == 0 {
		e.mu.Unlock()
		return decision
	}
	e.issued++
	seq := e.issued
	sinks := e.sinks
	e.mu.Unlock()

	for _, k := range changed {
		e.metrics.RecordAdaptationChange(string(k), string(in.source))
	}
	e.log.Info().
		Str("source", string(in.source)).
		Int("stressScore", decision.StressScore).
		Strs("triggers", triggers).
		Interface("changed", changed).
		Msg("Adaptations changed")

	e.deliver(seq, sinks, decision)
	return decision
}

// deliver hands decision to the sinks once every earlier decision has been
// delivered.
func (e *Engine) deliver(seq uint64, sinks []AdaptationSink, decision models.AdaptationDecision) {
	e.notifyMu.Lock()
	for e.delivered != seq-1 {
		e.notifyCond.Wait()
	}
	e.notifyMu.Unlock()

	for _, s := range sinks {
		s.OnAdaptation(decision)
	}

	e.notifyMu.Lock()
	e.delivered = seq
	e.notifyCond.Broadcast()
	e.notifyMu.Unlock()
}

func diff(prev, next models.AdaptationState) []models.AdaptationKey {
	var changed []models.AdaptationKey
	for k, v := range next {
		if prev[k] != v {
			changed = append(changed, k)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	return changed
}
