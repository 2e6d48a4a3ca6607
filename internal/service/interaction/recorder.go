// Package interaction accumulates bounded windows of raw interaction telemetry.
package interaction

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

// DefaultCapacity is the per-type buffer size.
const DefaultCapacity = 150

// ErrUnknownEventType is returned for events whose type is not recognized.
var ErrUnknownEventType = errors.New("unknown interaction event type")

// Recorder keeps one ring buffer per event type. Recorded events are never
// mutated; readers receive copies.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	buffers  map[models.InteractionType]*Ring[models.InteractionEvent]
	evicted  int
	now      func() time.Time
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source used for stamping and windowing.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates a recorder. capacity <= 0 selects DefaultCapacity.
func NewRecorder(capacity int, opts ...Option) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Recorder{
		capacity: capacity,
		buffers:  make(map[models.InteractionType]*Ring[models.InteractionEvent], len(models.InteractionTypes)),
		now:      time.Now,
		log:      logging.WithComponent("interaction"),
		metrics:  metrics.DefaultMetrics,
	}
	for _, t := range models.InteractionTypes {
		r.buffers[t] = NewRing[models.InteractionEvent](capacity)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends ev to the buffer for its type, evicting the oldest event of
// that type when full. A zero timestamp is stamped with the current time.
func (r *Recorder) Record(ev models.InteractionEvent) error {
	if !ev.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}

	r.mu.Lock()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now()
	}
	if r.buffers[ev.Type].Push(ev) {
		r.evicted++
	}
	r.mu.Unlock()

	r.metrics.RecordInteraction(string(ev.Type))
	return nil
}

// WindowSince returns events of every type recorded within the trailing
// window d, oldest first.
func (r *Recorder) WindowSince(d time.Duration) []models.InteractionEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-d)
	var out []models.InteractionEvent
	for _, t := range models.InteractionTypes {
		for _, ev := range r.buffers[t].Items() {
			if !ev.Timestamp.Before(cutoff) {
				out = append(out, ev)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Counts reports the fill level of every buffer.
func (r *Recorder) Counts() map[models.InteractionType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[models.InteractionType]int, len(r.buffers))
	for t, b := range r.buffers {
		out[t] = b.Len()
	}
	return out
}

// Evicted returns how many events were pushed out of full buffers.
func (r *Recorder) Evicted() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.evicted
}

// Capacity returns the per-type buffer size.
func (r *Recorder) Capacity() int {
	return r.capacity
}

// Reset clears every buffer.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.buffers {
		b.Reset()
	}
	r.evicted = 0
	r.log.Debug().Msg("Interaction buffers cleared")
}
