package stress

import (
	"context"
	"sync"
	"testing"
	"time"

	"sense-adaptive-core/internal/models"
)

type staticWindow struct {
	mu     sync.Mutex
	events []models.InteractionEvent
	calls  int
	window time.Duration
}

func (w *staticWindow) WindowSince(d time.Duration) []models.InteractionEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	w.window = d
	return append([]models.InteractionEvent(nil), w.events...)
}

func TestAnalyzer_TickOnce(t *testing.T) {
	src := &staticWindow{events: burst(models.InteractionClick, 25, time.Second)}
	var got []Result
	a := NewAnalyzer(src, nil, 0, 0, func(r Result) { got = append(got, r) })
	a.now = func() time.Time { return testNow }

	res := a.TickOnce()

	if res.Score < 3 {
		t.Errorf("expected score >= 3, got %d", res.Score)
	}
	if len(got) != 1 {
		t.Fatalf("expected handler to be called once, got %d", len(got))
	}
	if src.window != DefaultWindow {
		t.Errorf("expected %v window, got %v", DefaultWindow, src.window)
	}
	last, ok := a.Last()
	if !ok || last.Score != res.Score {
		t.Errorf("expected last result to be recorded, got %+v", last)
	}
}

func TestAnalyzer_StartStop(t *testing.T) {
	src := &staticWindow{}
	var mu sync.Mutex
	ticks := 0
	a := NewAnalyzer(src, nil, 10*time.Millisecond, time.Minute, func(Result) {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	a.Start(context.Background())
	a.Start(context.Background())
	if !a.Running() {
		t.Fatal("expected analyzer to be running")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := ticks
		mu.Unlock()
		if n >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	a.Stop()
	a.Stop()
	if a.Running() {
		t.Error("expected analyzer to be stopped")
	}

	mu.Lock()
	after := ticks
	mu.Unlock()
	if after < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", after)
	}

	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if ticks != after {
		t.Errorf("expected no ticks after stop, got %d more", ticks-after)
	}
}

func TestAnalyzer_ContextCancelStopsLoop(t *testing.T) {
	src := &staticWindow{}
	a := NewAnalyzer(src, nil, 5*time.Millisecond, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond)

	src.mu.Lock()
	calls := src.calls
	src.mu.Unlock()
	time.Sleep(30 * time.Millisecond)

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls != calls {
		t.Errorf("expected no ticks after context cancel, got %d more", src.calls-calls)
	}
	a.Stop()
}
