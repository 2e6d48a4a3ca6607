// Package stt defines the transcript source capability consumed by the voice controller.
package stt

import "context"

// Callback receives recognizer results and lifecycle events from a Source.
type Callback interface {
	// OnStart is called once the recognizer is capturing audio.
	OnStart()

	// OnPartial is called when an interim transcript is received.
	OnPartial(text string, confidence float64)

	// OnFinal is called when a final transcript is received.
	OnFinal(text string, confidence float64)

	// OnError is called when the recognizer reports a failure. It is usually
	// followed by OnEnd.
	OnError(err error)

	// OnEnd is called when the recognizer stops on its own. Most engines stop
	// after every utterance, even in continuous mode.
	OnEnd()
}

// Source wraps a speech recognition capability (browser, cloud, scripted).
type Source interface {
	// Start begins a recognition run that reports to cb.
	Start(ctx context.Context, cb Callback) error

	// Stop ends the current run and releases resources. Safe to call when not started.
	Stop() error
}

// AudioSink is implemented by sources that transcribe raw audio pushed by the caller.
type AudioSink interface {
	SendAudio(ctx context.Context, audio []byte) error
}
