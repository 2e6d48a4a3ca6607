package mock

import (
	"context"
	"sync"
	"testing"
	"time"

	"sense-adaptive-core/internal/service/stt"
)

// testCallback implements stt.Callback for testing
type testCallback struct {
	mu       sync.Mutex
	starts   int
	partials []string
	finals   []finalResult
	errors   []error
	ends     int
}

type finalResult struct {
	text       string
	confidence float64
}

func (c *testCallback) OnStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
}

func (c *testCallback) OnPartial(text string, _ float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partials = append(c.partials, text)
}

func (c *testCallback) OnFinal(text string, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finals = append(c.finals, finalResult{text, confidence})
}

func (c *testCallback) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

func (c *testCallback) OnEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ends++
}

func (c *testCallback) getEnds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ends
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSource_PlaysOneUtterancePerRun(t *testing.T) {
	script := []SimulatedUtterance{
		{Partials: []string{"take", "take me"}, Final: "take me home", Confidence: 0.9},
		{Partials: []string{"thanks"}, Final: "thanks", Confidence: 0.8},
	}
	src := New(script, 5*time.Millisecond)
	cb := &testCallback{}

	if err := src.Start(context.Background(), cb); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return cb.getEnds() == 1 })

	cb.mu.Lock()
	if cb.starts != 1 {
		t.Errorf("expected 1 start event, got %d", cb.starts)
	}
	if len(cb.partials) != 2 || cb.partials[1] != "take me" {
		t.Errorf("unexpected partials: %v", cb.partials)
	}
	if len(cb.finals) != 1 || cb.finals[0].text != "take me home" || cb.finals[0].confidence != 0.9 {
		t.Errorf("unexpected finals: %v", cb.finals)
	}
	cb.mu.Unlock()

	if src.Remaining() != 1 {
		t.Errorf("expected 1 remaining utterance, got %d", src.Remaining())
	}
}

func TestSource_RejectsConcurrentRuns(t *testing.T) {
	src := New(nil, time.Hour)
	cb := &testCallback{}

	if err := src.Start(context.Background(), cb); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := src.Start(context.Background(), cb); err != ErrAlreadyRunning {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
	if src.Starts() != 1 {
		t.Errorf("expected 1 run, got %d", src.Starts())
	}
	src.Stop()
}

func TestSource_Stop_SuppressesEvents(t *testing.T) {
	src := New(nil, 20*time.Millisecond)
	cb := &testCallback{}

	src.Start(context.Background(), cb)
	src.Stop()
	time.Sleep(80 * time.Millisecond)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if len(cb.partials) != 0 || len(cb.finals) != 0 || cb.ends != 0 {
		t.Errorf("expected no events after stop, got partials=%v finals=%v ends=%d", cb.partials, cb.finals, cb.ends)
	}
}

func TestSource_ExhaustedScriptReportsNoSpeech(t *testing.T) {
	src := New([]SimulatedUtterance{{Final: "hi", Confidence: 1}}, 2*time.Millisecond)
	cb := &testCallback{}

	src.Start(context.Background(), cb)
	waitFor(t, func() bool { return cb.getEnds() == 1 })
	src.Start(context.Background(), cb)
	waitFor(t, func() bool { return cb.getEnds() == 2 })

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if len(cb.errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(cb.errors))
	}
	if stt.Code(cb.errors[0]) != stt.CodeNoSpeech {
		t.Errorf("expected no-speech, got %v", cb.errors[0])
	}
}
