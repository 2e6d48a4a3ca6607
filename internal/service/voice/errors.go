package voice

import "errors"

// Error taxonomy of the voice session. Only ErrPermissionDenied and
// ErrRecognizerFatal reach Listener.OnError; the others are logged and counted.
var (
	ErrPermissionDenied    = errors.New("microphone permission denied")
	ErrRecognizerFatal     = errors.New("recognizer failed")
	ErrRecognizerTransient = errors.New("recognizer interrupted")
	ErrClassificationMiss  = errors.New("utterance matched no command")
	ErrLowConfidence       = errors.New("transcript below confidence threshold")
)

// IsPermissionError reports whether err stops the session until a fresh Start.
func IsPermissionError(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
