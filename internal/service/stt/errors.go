package stt

import (
	"errors"
	"fmt"
)

// Recognizer error codes, named after the browser SpeechRecognition error values.
const (
	CodeNoSpeech     = "no-speech"
	CodeAborted      = "aborted"
	CodeNetwork      = "network"
	CodeNotAllowed   = "not-allowed"
	CodeAudioCapture = "audio-capture"
	CodeServiceDown  = "service-not-allowed"
)

// RecognizerError is a failure reported by a Source.
type RecognizerError struct {
	Code string
	Err  error
}

func (e *RecognizerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognizer %s: %v", e.Code, e.Err)
	}
	return "recognizer " + e.Code
}

func (e *RecognizerError) Unwrap() error {
	return e.Err
}

// NewError builds a RecognizerError for code wrapping err (may be nil).
func NewError(code string, err error) *RecognizerError {
	return &RecognizerError{Code: code, Err: err}
}

// Code extracts the recognizer code from err, or "" if err is not a RecognizerError.
func Code(err error) string {
	var re *RecognizerError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsTransient reports whether the recognizer can simply be restarted after err.
func IsTransient(err error) bool {
	switch Code(err) {
	case CodeNotAllowed, CodeServiceDown, CodeAudioCapture:
		return false
	default:
		return true
	}
}
