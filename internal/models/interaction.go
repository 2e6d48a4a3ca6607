package models

import "time"

// InteractionType enumerates the telemetry event kinds the recorder accepts.
type InteractionType string

const (
	InteractionClick            InteractionType = "click"
	InteractionScroll           InteractionType = "scroll"
	InteractionMouseMove        InteractionType = "mouse_move"
	InteractionFormError        InteractionType = "form_error"
	InteractionNavigation       InteractionType = "navigation"
	InteractionKeypress         InteractionType = "keypress"
	InteractionFocus            InteractionType = "focus"
	InteractionBlur             InteractionType = "blur"
	InteractionVisibilityChange InteractionType = "visibility_change"
)

// InteractionTypes lists every accepted type in a stable order.
var InteractionTypes = []InteractionType{
	InteractionClick,
	InteractionScroll,
	InteractionMouseMove,
	InteractionFormError,
	InteractionNavigation,
	InteractionKeypress,
	InteractionFocus,
	InteractionBlur,
	InteractionVisibilityChange,
}

// Valid reports whether t is one of InteractionTypes.
func (t InteractionType) Valid() bool {
	for _, known := range InteractionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// InteractionPayload holds the type-specific fields of an event. Only the
// fields relevant to the event type are populated.
type InteractionPayload struct {
	Target string  `json:"target,omitempty"`
	Page   string  `json:"page,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Field  string  `json:"field,omitempty"`
	Key    string  `json:"key,omitempty"`
	Hidden bool    `json:"hidden,omitempty"`
}

// InteractionEvent is one raw telemetry sample supplied by the consumer.
type InteractionEvent struct {
	Type      InteractionType    `json:"type" validate:"required,interaction_type"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   InteractionPayload `json:"payload"`
}
