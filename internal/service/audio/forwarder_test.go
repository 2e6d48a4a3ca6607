package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sense-adaptive-core/internal/service/stt"
)

// testSource implements StreamingSource for testing
type testSource struct {
	mu      sync.Mutex
	started int
	stopped int
	audio   [][]byte
}

func (s *testSource) Start(ctx context.Context, cb stt.Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return nil
}

func (s *testSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func (s *testSource) SendAudio(ctx context.Context, audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, audio)
	return nil
}

// testCallback records recognizer events
type testCallback struct {
	mu     sync.Mutex
	errors []error
	ends   int
}

func (c *testCallback) OnStart()                  {}
func (c *testCallback) OnPartial(string, float64) {}
func (c *testCallback) OnFinal(string, float64)   {}

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

func TestForwarder_ForwardsWithinLimits(t *testing.T) {
	inner := &testSource{}
	f := NewForwarder(inner, DefaultLimits(), "s1")
	ctx := context.Background()

	if err := f.Start(ctx, &testCallback{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := f.SendAudio(ctx, make([]byte, 320)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(inner.audio) != 3 {
		t.Errorf("expected 3 frames forwarded, got %d", len(inner.audio))
	}
	u := f.Usage()
	if u.AudioBytes != 960 || u.Frames != 3 {
		t.Errorf("expected 960 bytes in 3 frames, got %d in %d", u.AudioBytes, u.Frames)
	}
}

func TestForwarder_MaxAudioBytesEndsRun(t *testing.T) {
	inner := &testSource{}
	cb := &testCallback{}
	f := NewForwarder(inner, Limits{MaxAudioBytes: 100}, "s1")
	ctx := context.Background()

	_ = f.Start(ctx, cb)
	if err := f.SendAudio(ctx, make([]byte, 50)); err != nil {
		t.Fatalf("first send should succeed: %v", err)
	}
	err := f.SendAudio(ctx, make([]byte, 60))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	if inner.stopped != 1 {
		t.Errorf("expected inner source stopped once, got %d", inner.stopped)
	}
	if len(cb.errors) != 1 || stt.Code(cb.errors[0]) != stt.CodeAborted {
		t.Errorf("expected one aborted error, got %v", cb.errors)
	}
	if !stt.IsTransient(cb.errors[0]) {
		t.Error("expected the abort to be transient")
	}
	if cb.ends != 1 {
		t.Errorf("expected one end event, got %d", cb.ends)
	}

	if err := f.SendAudio(ctx, make([]byte, 10)); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning after the run was dropped, got %v", err)
	}
}

func TestForwarder_RestartResetsCounters(t *testing.T) {
	inner := &testSource{}
	f := NewForwarder(inner, Limits{MaxAudioBytes: 100}, "s1")
	ctx := context.Background()

	_ = f.Start(ctx, &testCallback{})
	_ = f.SendAudio(ctx, make([]byte, 80))
	_ = f.Start(ctx, &testCallback{})

	if err := f.SendAudio(ctx, make([]byte, 80)); err != nil {
		t.Errorf("expected fresh budget after restart, got %v", err)
	}
	if u := f.Usage(); u.Runs != 2 || u.AudioBytes != 80 {
		t.Errorf("expected run 2 with 80 bytes, got run %d with %d", u.Runs, u.AudioBytes)
	}
}

func TestForwarder_FrameTooLarge(t *testing.T) {
	inner := &testSource{}
	cb := &testCallback{}
	f := NewForwarder(inner, Limits{MaxFrameBytes: 10}, "s1")
	ctx := context.Background()
	_ = f.Start(ctx, cb)

	if err := f.SendAudio(ctx, make([]byte, 11)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
	if len(cb.errors) != 0 {
		t.Error("an oversized frame should not end the run")
	}
	if err := f.SendAudio(ctx, make([]byte, 10)); err != nil {
		t.Errorf("expected frame at the limit to pass, got %v", err)
	}
}

func TestForwarder_MaxDuration(t *testing.T) {
	inner := &testSource{}
	cb := &testCallback{}
	f := NewForwarder(inner, Limits{MaxDuration: time.Minute}, "s1")
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = f.Start(ctx, cb)
	clock = clock.Add(2 * time.Minute)

	if err := f.SendAudio(ctx, []byte{1}); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("expected ErrLimitExceeded, got %v", err)
	}
	if cb.ends != 1 {
		t.Errorf("expected one end event, got %d", cb.ends)
	}
}

func TestForwarder_SendBeforeStart(t *testing.T) {
	f := NewForwarder(&testSource{}, DefaultLimits(), "s1")

	if err := f.SendAudio(context.Background(), []byte{1}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}

type closingSource struct {
	testSource
	closed bool
}

func (s *closingSource) Close() error {
	s.closed = true
	return nil
}

func TestForwarder_CloseReleasesInner(t *testing.T) {
	inner := &closingSource{}
	f := NewForwarder(inner, DefaultLimits(), "s1")
	_ = f.Start(context.Background(), &testCallback{})

	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inner.closed {
		t.Error("expected inner source to be closed")
	}
	if inner.stopped != 1 {
		t.Errorf("expected inner source stopped once, got %d", inner.stopped)
	}
}
