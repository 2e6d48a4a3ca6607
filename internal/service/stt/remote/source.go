// Package remote provides a transcript source whose recognizer runs on the client
// (typically the browser SpeechRecognition API) and reports over a transport.
package remote

import (
	"context"
	"errors"
	"sync"

	"sense-adaptive-core/internal/service/stt"
)

// Control actions sent to the client.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// ControlFunc asks the client-side recognizer to start or stop.
type ControlFunc func(action string) error

// Source implements stt.Source for a client-side recognizer. The transport
// feeds recognizer events in through the Deliver* methods.
type Source struct {
	control ControlFunc

	mu      sync.Mutex
	cb      stt.Callback
	running bool
	starts  int
}

// New creates a remote source that issues control actions through control.
func New(control ControlFunc) *Source {
	return &Source{control: control}
}

// Start asks the client to begin recognition.
func (s *Source) Start(ctx context.Context, cb stt.Callback) error {
	s.mu.Lock()
	s.cb = cb
	s.running = true
	s.starts++
	s.mu.Unlock()

	if s.control == nil {
		return nil
	}
	return s.control(ActionStart)
}

// Stop asks the client to stop recognition. Events arriving afterwards are dropped.
func (s *Source) Stop() error {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if !wasRunning || s.control == nil {
		return nil
	}
	return s.control(ActionStop)
}

// Starts returns how many recognition runs were requested.
func (s *Source) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// DeliverStart forwards the client's start event.
func (s *Source) DeliverStart() {
	if cb := s.callback(); cb != nil {
		cb.OnStart()
	}
}

// DeliverTranscript forwards an interim or final result.
func (s *Source) DeliverTranscript(text string, isFinal bool, confidence float64) {
	cb := s.callback()
	if cb == nil {
		return
	}
	if isFinal {
		cb.OnFinal(text, confidence)
		return
	}
	cb.OnPartial(text, confidence)
}

// DeliverError forwards a recognizer error reported with its browser code.
func (s *Source) DeliverError(code, message string) {
	cb := s.callback()
	if cb == nil {
		return
	}
	var cause error
	if message != "" {
		cause = errors.New(message)
	}
	cb.OnError(stt.NewError(code, cause))
}

// DeliverEnd forwards the client's end event and marks the run finished.
func (s *Source) DeliverEnd() {
	s.mu.Lock()
	cb := s.cb
	running := s.running
	s.running = false
	s.mu.Unlock()

	if running && cb != nil {
		cb.OnEnd()
	}
}

func (s *Source) callback() stt.Callback {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	return s.cb
}
