package models

// ClassifyRequest asks for a stateless classification of one utterance.
type ClassifyRequest struct {
	Text        string       `json:"text" validate:"required,max=500"`
	CommandMode bool         `json:"commandMode"`
	Route       string       `json:"route,omitempty" validate:"omitempty,startswith=/"`
	Product     *ProductStub `json:"product,omitempty"`
}

// OverrideRequest pins one adaptation to a value.
type OverrideRequest struct {
	Key     AdaptationKey `json:"key" validate:"required,adaptation_key"`
	Enabled bool          `json:"enabled"`
}

// ScoreRequest asks for a stress score over a batch of events.
type ScoreRequest struct {
	Events        []InteractionEvent `json:"events" validate:"max=2000,dive"`
	WindowSeconds int                `json:"windowSeconds" validate:"omitempty,min=1,max=3600"`
}

// ProfileRequest stores a profile for a user.
type ProfileRequest struct {
	UserID  string                `json:"userId" validate:"required,max=128"`
	Profile NeurodiversityProfile `json:"profile"`
}
