package ws

import (
	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/stress"
)

// Client frame types.
const (
	FrameStart           = "start"
	FrameStop            = "stop"
	FrameHello           = "hello"
	FrameRecognizerStart = "recognizer.start"
	FrameRecognizerError = "recognizer.error"
	FrameRecognizerEnd   = "recognizer.end"
	FrameTranscript      = "transcript"
	FrameInteraction     = "interaction"
	FrameProfile         = "profile"
	FrameOverride        = "override"
	FrameCommand         = "command"
	FrameContext         = "context"
	FrameAnalyze         = "analyze"
)

// Server frame types.
const (
	FrameSession           = "session"
	FrameRecognizerControl = "recognizer.control"
	FrameWake              = "wake"
	FrameStatus            = "status"
	FrameError             = "error"
	FrameAdaptation        = "adaptation"
	FrameStress            = "stress"
)

// Error codes sent in error frames.
const (
	CodePermissionDenied = "permission_denied"
	CodeRecognizerFatal  = "recognizer_fatal"
	CodeBadRequest       = "bad_request"
	CodeInternal         = "internal"
)

// ClientFrame is every JSON message a client may send. Binary messages carry
// raw audio for server-side recognition.
type ClientFrame struct {
	Type string `json:"type"`

	// start
	Granted *bool `json:"granted,omitempty"`

	// hello, profile
	UserID  string                        `json:"userId,omitempty"`
	Profile *models.NeurodiversityProfile `json:"profile,omitempty"`

	// transcript, command
	Text       string  `json:"text,omitempty"`
	IsFinal    bool    `json:"isFinal,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	// recognizer.error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	// interaction
	Event *models.InteractionEvent `json:"event,omitempty"`

	// override
	Key     models.AdaptationKey `json:"key,omitempty"`
	Enabled bool                 `json:"enabled,omitempty"`

	// context
	Route   string              `json:"route,omitempty"`
	Product *models.ProductStub `json:"product,omitempty"`
}

// ServerFrame is every JSON message the gateway sends.
type ServerFrame struct {
	Type string `json:"type"`

	SessionID string                     `json:"sessionId,omitempty"`
	Action    string                     `json:"action,omitempty"`
	Text      string                     `json:"text,omitempty"`
	Interim   bool                       `json:"interim,omitempty"`
	Command   *models.Command            `json:"command,omitempty"`
	Raw       string                     `json:"raw,omitempty"`
	Status    *models.Status             `json:"status,omitempty"`
	Decision  *models.AdaptationDecision `json:"decision,omitempty"`
	Stress    *stress.Result             `json:"stress,omitempty"`
	Error     string                     `json:"error,omitempty"`
	Code      string                     `json:"code,omitempty"`
}
