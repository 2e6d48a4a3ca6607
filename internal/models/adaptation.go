package models

import "time"

// AdaptationKey names an accessibility behavior toggle applied by the UI.
type AdaptationKey string

const (
	FocusMode         AdaptationKey = "focusMode"
	HighContrast      AdaptationKey = "highContrast"
	LargeText         AdaptationKey = "largeText"
	CalmingMode       AdaptationKey = "calmingMode"
	ReducedMotion     AdaptationKey = "reducedMotion"
	SimplifiedLayout  AdaptationKey = "simplifiedLayout"
	VoiceNavigation   AdaptationKey = "voiceNavigation"
	ColorBlindSupport AdaptationKey = "colorBlindSupport"
	SlowMode          AdaptationKey = "slowMode"
	DistractionFree   AdaptationKey = "distractionFree"
	ReducedColors     AdaptationKey = "reducedColors"
	ReducedAnimations AdaptationKey = "reducedAnimations"
	DyslexiaFont      AdaptationKey = "dyslexiaFont"
	IncreasedSpacing  AdaptationKey = "increasedSpacing"
	Reassurance       AdaptationKey = "reassurance"
)

// AdaptationKeys lists every known key.
var AdaptationKeys = []AdaptationKey{
	FocusMode, HighContrast, LargeText, CalmingMode, ReducedMotion,
	SimplifiedLayout, VoiceNavigation, ColorBlindSupport, SlowMode,
	DistractionFree, ReducedColors, ReducedAnimations, DyslexiaFont,
	IncreasedSpacing, Reassurance,
}

// Valid reports whether k is a known adaptation key.
func (k AdaptationKey) Valid() bool {
	for _, known := range AdaptationKeys {
		if k == known {
			return true
		}
	}
	return false
}

// AdaptationState maps each adaptation to whether it is applied.
type AdaptationState map[AdaptationKey]bool

// Clone returns an independent copy.
func (s AdaptationState) Clone() AdaptationState {
	out := make(AdaptationState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// NeurodiversityProfile is the user-declared set of condition flags.
type NeurodiversityProfile struct {
	ADHD            bool `json:"adhd"`
	Autism          bool `json:"autism"`
	Dyslexia        bool `json:"dyslexia"`
	Anxiety         bool `json:"anxiety"`
	CognitiveLoad   bool `json:"cognitiveLoad"`
	SensoryOverload bool `json:"sensoryOverload"`
}

// AdaptationSource identifies which input produced a decision.
type AdaptationSource string

const (
	AdaptationSourceStress   AdaptationSource = "stress"
	AdaptationSourceOverride AdaptationSource = "override"
)

// AdaptationDecision is the engine's output after one merge.
type AdaptationDecision struct {
	State       AdaptationState  `json:"state"`
	Changed     []AdaptationKey  `json:"changed"`
	Triggers    []string         `json:"triggers,omitempty"`
	StressScore int              `json:"stressScore"`
	Source      AdaptationSource `json:"source"`
	Timestamp   time.Time        `json:"timestamp"`
}
