package interaction

import (
	"errors"
	"testing"
	"time"

	"sense-adaptive-core/internal/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRing_EvictsOldest(t *testing.T) {
	r := NewRing[int](3)

	for i := 1; i <= 3; i++ {
		if r.Push(i) {
			t.Fatalf("unexpected eviction at %d", i)
		}
	}
	if !r.Push(4) {
		t.Error("expected eviction when full")
	}

	items := r.Items()
	expected := []int{2, 3, 4}
	if len(items) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(items))
	}
	for i := range expected {
		if items[i] != expected[i] {
			t.Errorf("position %d: expected %d, got %d", i, expected[i], items[i])
		}
	}

	r.Reset()
	if r.Len() != 0 || r.Cap() != 3 {
		t.Errorf("unexpected state after reset: len=%d cap=%d", r.Len(), r.Cap())
	}
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := NewRing[string](0)
	r.Push("a")
	r.Push("b")

	if r.Cap() != 1 {
		t.Errorf("expected capacity 1, got %d", r.Cap())
	}
	if items := r.Items(); len(items) != 1 || items[0] != "b" {
		t.Errorf("expected [b], got %v", items)
	}
}

func TestRecorder_RejectsUnknownType(t *testing.T) {
	r := NewRecorder(10)

	err := r.Record(models.InteractionEvent{Type: "telepathy"})
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestRecorder_CapacityPerType(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRecorder(5, WithClock(clock.now))

	for i := 0; i < 8; i++ {
		_ = r.Record(models.InteractionEvent{Type: models.InteractionClick})
		clock.advance(time.Millisecond)
	}
	_ = r.Record(models.InteractionEvent{Type: models.InteractionScroll})

	counts := r.Counts()
	if counts[models.InteractionClick] != 5 {
		t.Errorf("expected 5 clicks, got %d", counts[models.InteractionClick])
	}
	if counts[models.InteractionScroll] != 1 {
		t.Errorf("expected 1 scroll, got %d", counts[models.InteractionScroll])
	}
	if r.Evicted() != 3 {
		t.Errorf("expected 3 evictions, got %d", r.Evicted())
	}
}

func TestRecorder_WindowSince(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRecorder(0, WithClock(clock.now))
	base := clock.t

	_ = r.Record(models.InteractionEvent{Type: models.InteractionClick, Timestamp: base})
	_ = r.Record(models.InteractionEvent{Type: models.InteractionScroll, Timestamp: base.Add(30 * time.Second)})
	_ = r.Record(models.InteractionEvent{Type: models.InteractionClick, Timestamp: base.Add(50 * time.Second)})
	_ = r.Record(models.InteractionEvent{Type: models.InteractionFormError, Timestamp: base.Add(40 * time.Second)})

	clock.advance(90 * time.Second)
	window := r.WindowSince(60 * time.Second)

	if len(window) != 3 {
		t.Fatalf("expected 3 events in window, got %d", len(window))
	}
	expected := []models.InteractionType{models.InteractionScroll, models.InteractionFormError, models.InteractionClick}
	for i, typ := range expected {
		if window[i].Type != typ {
			t.Errorf("position %d: expected %s, got %s", i, typ, window[i].Type)
		}
	}
}

func TestRecorder_StampsZeroTimestamp(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRecorder(10, WithClock(clock.now))

	_ = r.Record(models.InteractionEvent{Type: models.InteractionKeypress})

	window := r.WindowSince(time.Second)
	if len(window) != 1 {
		t.Fatalf("expected 1 event, got %d", len(window))
	}
	if !window[0].Timestamp.Equal(clock.t) {
		t.Errorf("expected timestamp %v, got %v", clock.t, window[0].Timestamp)
	}
}

func TestRecorder_WindowIsACopy(t *testing.T) {
	r := NewRecorder(10)
	_ = r.Record(models.InteractionEvent{Type: models.InteractionClick, Payload: models.InteractionPayload{Target: "buy"}})

	first := r.WindowSince(time.Minute)
	first[0].Payload.Target = "mutated"

	second := r.WindowSince(time.Minute)
	if second[0].Payload.Target != "buy" {
		t.Errorf("recorded event was mutated: %q", second[0].Payload.Target)
	}
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder(10)
	_ = r.Record(models.InteractionEvent{Type: models.InteractionBlur})
	r.Reset()

	if len(r.WindowSince(time.Hour)) != 0 {
		t.Error("expected empty window after reset")
	}
}
