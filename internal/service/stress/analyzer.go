package stress

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/observability/metrics"
)

// Defaults for the periodic analysis loop.
const (
	DefaultInterval = 3 * time.Second
	DefaultWindow   = 60 * time.Second
)

// WindowSource supplies the trailing interaction window.
type WindowSource interface {
	WindowSince(d time.Duration) []models.InteractionEvent
}

// ResultHandler receives every tick's result.
type ResultHandler func(Result)

// Analyzer runs the scorer on a fixed tick while started.
type Analyzer struct {
	source   WindowSource
	scorer   *Scorer
	interval time.Duration
	window   time.Duration
	handler  ResultHandler
	now      func() time.Time
	log      zerolog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	last    Result
	hasLast bool
}

// NewAnalyzer creates a stopped analyzer. Zero interval or window select the defaults.
func NewAnalyzer(source WindowSource, scorer *Scorer, interval, window time.Duration, handler ResultHandler) *Analyzer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if scorer == nil {
		scorer = NewScorer(DefaultThresholds())
	}
	return &Analyzer{
		source:   source,
		scorer:   scorer,
		interval: interval,
		window:   window,
		handler:  handler,
		now:      time.Now,
		log:      logging.WithComponent("stress"),
		metrics:  metrics.DefaultMetrics,
	}
}

// Start launches the tick loop. Calling Start while running is a no-op.
func (a *Analyzer) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(ctx, a.done)

	a.log.Debug().
		Dur("interval", a.interval).
		Dur("window", a.window).
		Msg("Stress analysis started")
}

// Stop cancels the loop and waits for it to exit. Idempotent.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	a.log.Debug().Msg("Stress analysis stopped")
}

// Running reports whether the loop is active.
func (a *Analyzer) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

func (a *Analyzer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.TickOnce()
		}
	}
}

// TickOnce scores the current window immediately and hands the result to the
// handler. The score is recomputed from scratch every time.
func (a *Analyzer) TickOnce() Result {
	events := a.source.WindowSince(a.window)
	res := a.scorer.Score(events, a.window, a.now())

	a.mu.Lock()
	a.last, a.hasLast = res, true
	a.mu.Unlock()

	a.metrics.RecordStressScore(res.Score)
	a.log.Debug().
		Int("score", res.Score).
		Int("events", res.Events).
		Strs("signals", res.Triggered()).
		Msg("Stress tick")

	if a.handler != nil {
		a.handler(res)
	}
	return res
}

// Last returns the most recent result, if any tick has run.
func (a *Analyzer) Last() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.hasLast
}
