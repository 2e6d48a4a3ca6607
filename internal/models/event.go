package models

// Event types published downstream.
const (
	EventTypeCommand    = "sense.command"
	EventTypeAdaptation = "sense.adaptation"
)

// Event is the envelope written to the message bus. Exactly one of Command
// and Decision is set, matching EventType.
type Event struct {
	EventType string              `json:"eventType"`
	SessionID string              `json:"sessionId"`
	Command   *Command            `json:"command,omitempty"`
	Decision  *AdaptationDecision `json:"decision,omitempty"`
	Timestamp int64               `json:"timestamp"`
}
