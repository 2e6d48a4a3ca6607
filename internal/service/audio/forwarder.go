// Package audio forwards raw audio frames to a streaming transcript source and
// enforces per-run backpressure limits.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sense-adaptive-core/internal/observability/logging"
	"sense-adaptive-core/internal/observability/metrics"
	"sense-adaptive-core/internal/service/stt"
)

var (
	// ErrFrameTooLarge is returned for a single frame above MaxFrameBytes.
	ErrFrameTooLarge = errors.New("audio frame too large")
	// ErrLimitExceeded ends the current recognition run.
	ErrLimitExceeded = errors.New("recognition run limit exceeded")
	// ErrNotRunning is returned when audio arrives with no run in progress.
	ErrNotRunning = errors.New("no recognition run in progress")
)

// Limits defines safety guardrails for a single recognition run.
type Limits struct {
	MaxAudioBytes int64         // Max audio per run
	MaxFrameBytes int           // Max size of one frame
	MaxDuration   time.Duration // Max run duration
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: 5 * 1024 * 1024, // 5MB (~160 seconds at 16kHz 16-bit mono)
		MaxFrameBytes: 64 * 1024,
		MaxDuration:   5 * time.Minute, // streaming recognition caps a stream near this
	}
}

// StreamingSource is a transcript source fed with pushed audio.
type StreamingSource interface {
	stt.Source
	stt.AudioSink
}

// Forwarder implements stt.Source on top of a StreamingSource. When a run
// exceeds its limits the inner stream is stopped and the run is reported as
// aborted followed by an end event, so the controller restarts a fresh run.
type Forwarder struct {
	inner   StreamingSource
	limits  Limits
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	cb        stt.Callback
	running   bool
	runStart  time.Time
	bytes     int64
	frames    int
	totalRuns int
}

// NewForwarder wraps inner with the given limits.
func NewForwarder(inner StreamingSource, limits Limits, sessionID string) *Forwarder {
	return &Forwarder{
		inner:   inner,
		limits:  limits,
		now:     time.Now,
		log:     logging.WithSession(sessionID).With().Str("component", "audio").Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// Start begins a new run with fresh counters.
func (f *Forwarder) Start(ctx context.Context, cb stt.Callback) error {
	f.mu.Lock()
	f.cb = cb
	f.running = true
	f.runStart = f.now()
	f.bytes = 0
	f.frames = 0
	f.totalRuns++
	f.mu.Unlock()

	if err := f.inner.Start(ctx, cb); err != nil {
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
		return err
	}
	return nil
}

// Stop ends the current run.
func (f *Forwarder) Stop() error {
	f.mu.Lock()
	f.running = false
	f.cb = nil
	f.mu.Unlock()
	return f.inner.Stop()
}

// Close stops the run and releases the inner source if it holds resources.
func (f *Forwarder) Close() error {
	err := f.Stop()
	if c, ok := f.inner.(interface{ Close() error }); ok {
		if cerr := c.Close(); cerr != nil {
			return cerr
		}
	}
	return err
}

// SendAudio forwards one frame. Exceeding a run limit ends the run.
func (f *Forwarder) SendAudio(ctx context.Context, frame []byte) error {
	if f.limits.MaxFrameBytes > 0 && len(frame) > f.limits.MaxFrameBytes {
		f.metrics.RecordLimitExceeded("frame_bytes")
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(frame), f.limits.MaxFrameBytes)
	}

	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return ErrNotRunning
	}
	f.bytes += int64(len(frame))
	f.frames++
	bytes := f.bytes
	elapsed := f.now().Sub(f.runStart)
	f.mu.Unlock()

	f.metrics.RecordAudioReceived(len(frame))

	if f.limits.MaxAudioBytes > 0 && bytes > f.limits.MaxAudioBytes {
		return f.abort("audio_bytes", fmt.Sprintf("max audio bytes exceeded: %d > %d", bytes, f.limits.MaxAudioBytes))
	}
	if f.limits.MaxDuration > 0 && elapsed > f.limits.MaxDuration {
		return f.abort("duration", fmt.Sprintf("max duration exceeded: %v > %v", elapsed, f.limits.MaxDuration))
	}
	return f.inner.SendAudio(ctx, frame)
}

// Usage holds the counters of the current run.
type Usage struct {
	AudioBytes int64
	Frames     int
	Duration   time.Duration
	Runs       int
}

// Usage returns the current run's counters.
func (f *Forwarder) Usage() Usage {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := Usage{AudioBytes: f.bytes, Frames: f.frames, Runs: f.totalRuns}
	if f.running {
		u.Duration = f.now().Sub(f.runStart)
	}
	return u
}

func (f *Forwarder) abort(limit, reason string) error {
	f.mu.Lock()
	cb := f.cb
	wasRunning := f.running
	f.running = false
	f.mu.Unlock()

	err := fmt.Errorf("%w: %s", ErrLimitExceeded, reason)
	if !wasRunning {
		return err
	}

	f.metrics.RecordLimitExceeded(limit)
	f.log.Warn().Str("limit", limit).Str("reason", reason).Msg("Recognition run dropped")

	if stopErr := f.inner.Stop(); stopErr != nil {
		f.log.Debug().Err(stopErr).Msg("Inner source stop failed")
	}
	if cb != nil {
		cb.OnError(stt.NewError(stt.CodeAborted, err))
		cb.OnEnd()
	}
	return err
}

var _ stt.Source = (*Forwarder)(nil)
