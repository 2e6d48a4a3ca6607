// Package mock provides a scripted transcript source for demos and tests without a microphone.
// Each recognition run plays one utterance as progressive interim transcripts followed by
// exactly one final transcript, then ends the run the way browser recognizers do.
package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"sense-adaptive-core/internal/service/stt"
)

// ErrAlreadyRunning is returned by Start while a run is in progress.
var ErrAlreadyRunning = errors.New("mock source already running")

// SimulatedUtterance represents a scripted utterance with progressive transcripts.
type SimulatedUtterance struct {
	Partials   []string // Progressive interim transcripts
	Final      string   // Final transcript text
	Confidence float64  // Confidence score for final
}

// DefaultUtterances is a short storefront session.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"hey", "hey sense"},
		Final:      "hey sense",
		Confidence: 0.93,
	},
	{
		Partials:   []string{"take me", "take me to", "take me to products"},
		Final:      "take me to products",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"sense add", "sense add headphones", "sense add headphones to"},
		Final:      "sense add headphones to cart",
		Confidence: 0.88,
	},
	{
		Partials:   []string{"um"},
		Final:      "um what was it",
		Confidence: 0.42,
	},
	{
		Partials:   []string{"thanks", "thanks done"},
		Final:      "thanks, done",
		Confidence: 0.95,
	},
}

// Source implements stt.Source by replaying a script.
type Source struct {
	script []SimulatedUtterance
	delay  time.Duration

	mu      sync.Mutex
	next    int
	running bool
	cancel  context.CancelFunc
	starts  int
}

// New creates a scripted source. delay separates consecutive transcript events.
func New(script []SimulatedUtterance, delay time.Duration) *Source {
	if len(script) == 0 {
		script = DefaultUtterances
	}
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	return &Source{script: script, delay: delay}
}

// Start begins a run that plays the next scripted utterance. Once the script
// is exhausted every run ends with a no-speech error.
func (s *Source) Start(ctx context.Context, cb stt.Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.starts++

	var utt *SimulatedUtterance
	if s.next < len(s.script) {
		u := s.script[s.next]
		utt = &u
		s.next++
	}

	go s.play(runCtx, cb, utt)
	return nil
}

// Stop cancels the current run. Idempotent.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	return nil
}

// Starts returns how many runs have been started.
func (s *Source) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Remaining returns the number of utterances not yet played.
func (s *Source) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.script) - s.next
}

func (s *Source) play(ctx context.Context, cb stt.Callback, utt *SimulatedUtterance) {
	cb.OnStart()

	if utt == nil {
		if !s.wait(ctx) {
			return
		}
		cb.OnError(stt.NewError(stt.CodeNoSpeech, nil))
		s.finish(cb)
		return
	}

	for _, partial := range utt.Partials {
		if !s.wait(ctx) {
			return
		}
		cb.OnPartial(partial, utt.Confidence*0.8)
	}

	if !s.wait(ctx) {
		return
	}
	cb.OnFinal(utt.Final, utt.Confidence)
	s.finish(cb)
}

// finish marks the run as ended before notifying, so a restart issued from
// inside OnEnd is accepted.
func (s *Source) finish(cb stt.Callback) {
	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()
	cb.OnEnd()
}

func (s *Source) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
