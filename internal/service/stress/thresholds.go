package stress

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScoreCeiling is the highest score any configuration can produce.
const ScoreCeiling = 10

// Thresholds holds the heuristic constants of the scorer. They have no
// calibration behind them and are meant to be tuned through configuration.
type Thresholds struct {
	MaxScore int `yaml:"max_score"`

	ClickRateHigh       float64 `yaml:"click_rate_high"` // clicks per minute
	ClickRateHighPoints int     `yaml:"click_rate_high_points"`
	ClickRateModerate   float64 `yaml:"click_rate_moderate"` // clicks per minute
	ClickRateModPoints  int     `yaml:"click_rate_moderate_points"`

	BacktrackRatio  float64 `yaml:"backtrack_ratio"` // navigations per distinct page
	BacktrackPoints int     `yaml:"backtrack_points"`

	GapHigh           time.Duration `yaml:"gap_high"`
	GapHighPoints     int           `yaml:"gap_high_points"`
	GapModerate       time.Duration `yaml:"gap_moderate"`
	GapModeratePoints int           `yaml:"gap_moderate_points"`

	FormErrorPoints int `yaml:"form_error_points"`
	FormErrorCap    int `yaml:"form_error_cap"`

	ScrollVolume       int `yaml:"scroll_volume"`
	ScrollVolumePoints int `yaml:"scroll_volume_points"`

	MouseSpeed         float64 `yaml:"mouse_speed"` // pixels per millisecond
	MouseErraticRatio  float64 `yaml:"mouse_erratic_ratio"`
	MouseMinSamples    int     `yaml:"mouse_min_samples"`
	MouseErraticPoints int     `yaml:"mouse_erratic_points"`
}

// DefaultThresholds returns the standard heuristic constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxScore: ScoreCeiling,

		ClickRateHigh:       20,
		ClickRateHighPoints: 3,
		ClickRateModerate:   10,
		ClickRateModPoints:  1,

		BacktrackRatio:  2,
		BacktrackPoints: 2,

		GapHigh:           30 * time.Second,
		GapHighPoints:     3,
		GapModerate:       15 * time.Second,
		GapModeratePoints: 2,

		FormErrorPoints: 2,
		FormErrorCap:    4,

		ScrollVolume:       30,
		ScrollVolumePoints: 1,

		MouseSpeed:         2.0,
		MouseErraticRatio:  0.3,
		MouseMinSamples:    5,
		MouseErraticPoints: 2,
	}
}

// LoadThresholds reads a YAML file over the defaults. Keys missing from the
// file keep their default value. An empty path returns the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return DefaultThresholds(), fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return DefaultThresholds(), fmt.Errorf("invalid thresholds %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects settings that would make the score meaningless.
func (t Thresholds) Validate() error {
	switch {
	case t.MaxScore <= 0:
		return errors.New("max_score must be positive")
	case t.MaxScore > ScoreCeiling:
		return fmt.Errorf("max_score must not exceed %d", ScoreCeiling)
	case t.ClickRateModerate > t.ClickRateHigh:
		return errors.New("click_rate_moderate exceeds click_rate_high")
	case t.GapModerate > t.GapHigh:
		return errors.New("gap_moderate exceeds gap_high")
	case t.MouseErraticRatio < 0 || t.MouseErraticRatio > 1:
		return errors.New("mouse_erratic_ratio must be within [0,1]")
	case t.FormErrorCap < 0:
		return errors.New("form_error_cap must not be negative")
	}
	return nil
}
