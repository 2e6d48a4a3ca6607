package voice

import (
	"context"

	"sense-adaptive-core/internal/models"
)

// Listener is the event surface of a Controller. Callbacks run outside the
// controller's lock, so they may call back into the controller (Stop in
// particular).
type Listener interface {
	// OnTranscript fires for every recognizer result before classification.
	OnTranscript(text string, interim bool)

	// OnWakeWord fires once per command mode entry.
	OnWakeWord()

	// OnCommand fires once per classified utterance.
	OnCommand(cmd models.Command, raw string)

	// OnStatusChange fires on every state transition.
	OnStatusChange(status models.Status)

	// OnError fires on unrecoverable failures (permission, fatal recognizer).
	OnError(err error)
}

// NopListener ignores every event. Embed it to implement only part of Listener.
type NopListener struct{}

func (NopListener) OnTranscript(string, bool)        {}
func (NopListener) OnWakeWord()                      {}
func (NopListener) OnCommand(models.Command, string) {}
func (NopListener) OnStatusChange(models.Status)     {}
func (NopListener) OnError(error)                    {}

// PermissionRequester asks the platform for microphone access. It is the only
// blocking call of a session and is awaited once per Start.
type PermissionRequester interface {
	RequestMicrophone(ctx context.Context) error
}

// PermissionFunc adapts a function to PermissionRequester.
type PermissionFunc func(ctx context.Context) error

func (f PermissionFunc) RequestMicrophone(ctx context.Context) error {
	return f(ctx)
}

// AlwaysGranted is used for server-side sources that need no permission.
var AlwaysGranted PermissionRequester = PermissionFunc(func(context.Context) error { return nil })
