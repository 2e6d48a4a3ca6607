// Package session implements the voice session state machine and utterance ID generation.
package session

import (
	"errors"
	"fmt"
	"sync"

	"sense-adaptive-core/internal/models"
)

// Errors for invalid state transitions.
var (
	ErrNotActive         = errors.New("session is not active")
	ErrNotInCommandMode  = errors.New("processing requires command mode")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// Lifecycle guards the voice session state machine.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE ──Listen()──→ LISTENING ──EnterCommandMode()──→ COMMAND_MODE
//	                      ▲                                 │    ▲
//	                      │                    BeginProcessing() │ EndProcessing()
//	                      │                                 ▼    │
//	                      └──────ExitCommandMode()──────  PROCESSING
//
//	any ──Fail()──→ ERROR      any ──Reset()──→ IDLE
//
// Rules:
//   - PROCESSING is entered only from COMMAND_MODE and always leaves to COMMAND_MODE or LISTENING
//   - ERROR is left only through Listen() (a fresh start) or Reset()
type Lifecycle struct {
	mu    sync.RWMutex
	state models.SessionState
}

// NewLifecycle creates a lifecycle in IDLE state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: models.SessionStateIdle}
}

// State returns the current state.
func (l *Lifecycle) State() models.SessionState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// InCommandMode returns true while a command utterance is expected or being processed.
func (l *Lifecycle) InCommandMode() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == models.SessionStateCommandMode || l.state == models.SessionStateProcessing
}

// IsListening returns true in every state where the recognizer is expected to run.
func (l *Lifecycle) IsListening() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	switch l.state {
	case models.SessionStateListening, models.SessionStateCommandMode, models.SessionStateProcessing:
		return true
	default:
		return false
	}
}

// Listen moves to LISTENING. Allowed from IDLE, ERROR (fresh start) and LISTENING.
func (l *Lifecycle) Listen() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case models.SessionStateIdle, models.SessionStateError, models.SessionStateListening:
		l.state = models.SessionStateListening
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.state, models.SessionStateListening)
	}
}

// EnterCommandMode moves to COMMAND_MODE from LISTENING, COMMAND_MODE or PROCESSING.
func (l *Lifecycle) EnterCommandMode() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case models.SessionStateListening, models.SessionStateCommandMode, models.SessionStateProcessing:
		l.state = models.SessionStateCommandMode
		return nil
	case models.SessionStateIdle, models.SessionStateError:
		return ErrNotActive
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.state, models.SessionStateCommandMode)
	}
}

// ExitCommandMode returns to LISTENING. Returns false if the session was not
// in command mode, so callers can emit exactly one exit notification.
func (l *Lifecycle) ExitCommandMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case models.SessionStateCommandMode, models.SessionStateProcessing:
		l.state = models.SessionStateListening
		return true
	default:
		return false
	}
}

// BeginProcessing moves COMMAND_MODE to PROCESSING.
func (l *Lifecycle) BeginProcessing() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != models.SessionStateCommandMode {
		return ErrNotInCommandMode
	}
	l.state = models.SessionStateProcessing
	return nil
}

// EndProcessing returns PROCESSING to COMMAND_MODE. A no-op in any other state,
// which covers a Stop() or Fail() that landed while the command was classified.
func (l *Lifecycle) EndProcessing() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == models.SessionStateProcessing {
		l.state = models.SessionStateCommandMode
	}
}

// Fail moves to ERROR from any state.
// Returns false if the session was already in ERROR.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == models.SessionStateError {
		return false
	}
	l.state = models.SessionStateError
	return true
}

// Reset moves to IDLE from any state. Idempotent.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = models.SessionStateIdle
}
