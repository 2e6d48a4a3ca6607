package stt

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"no speech", NewError(CodeNoSpeech, nil), true},
		{"network", NewError(CodeNetwork, errors.New("blip")), true},
		{"aborted", NewError(CodeAborted, nil), true},
		{"not allowed", NewError(CodeNotAllowed, nil), false},
		{"service not allowed", NewError(CodeServiceDown, nil), false},
		{"audio capture", NewError(CodeAudioCapture, nil), false},
		{"wrapped fatal", fmt.Errorf("source: %w", NewError(CodeAudioCapture, nil)), false},
		{"plain error", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.expected {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRecognizerError_Unwrap(t *testing.T) {
	cause := errors.New("device busy")
	err := NewError(CodeAudioCapture, cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Error() != "recognizer audio-capture: device busy" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if Code(err) != CodeAudioCapture {
		t.Errorf("expected code %s, got %s", CodeAudioCapture, Code(err))
	}
}
