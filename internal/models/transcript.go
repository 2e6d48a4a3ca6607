// Package models defines the data structures exchanged between the voice core and its consumer.
package models

import "time"

// TranscriptEvent is a single interim or final recognizer result.
type TranscriptEvent struct {
	Text       string    `json:"text"`
	IsFinal    bool      `json:"isFinal"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// SessionState is the lifecycle state of a voice session.
type SessionState string

const (
	SessionStateIdle        SessionState = "idle"
	SessionStateListening   SessionState = "listening"
	SessionStateCommandMode SessionState = "command_mode"
	SessionStateProcessing  SessionState = "processing"
	SessionStateError       SessionState = "error"
)

// Status summarizes the voice session for onStatusChange.
type Status struct {
	State       SessionState `json:"state"`
	Listening   bool         `json:"listening"`
	Active      bool         `json:"active"`
	CommandMode bool         `json:"commandMode"`
}
