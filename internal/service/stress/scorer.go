// Package stress reduces a trailing window of interaction events to a bounded
// stress score.
package stress

import (
	"math"
	"sort"
	"time"

	"sense-adaptive-core/internal/models"
)

// Signal names.
const (
	SignalClickRate    = "click_rate"
	SignalBacktracking = "navigation_backtracking"
	SignalHesitation   = "interaction_gap"
	SignalFormErrors   = "form_errors"
	SignalScrollVolume = "scroll_volume"
	SignalMouseErratic = "erratic_mouse"
)

// Signal is one heuristic's contribution to a score.
type Signal struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Points int     `json:"points"`
}

// Result is the outcome of scoring one window.
type Result struct {
	Score   int       `json:"score"`
	Signals []Signal  `json:"signals"`
	Events  int       `json:"events"`
	At      time.Time `json:"at"`
}

// Triggered returns the names of signals that contributed points.
func (r Result) Triggered() []string {
	var names []string
	for _, s := range r.Signals {
		if s.Points > 0 {
			names = append(names, s.Name)
		}
	}
	return names
}

// Scorer is stateless: every call recomputes from the given window.
type Scorer struct {
	t Thresholds
}

// NewScorer creates a scorer with the given thresholds.
func NewScorer(t Thresholds) *Scorer {
	return &Scorer{t: t}
}

// Thresholds returns the scorer's settings.
func (s *Scorer) Thresholds() Thresholds { return s.t }

// ScoreBatch scores events supplied by a caller outside a session. Events
// without a timestamp count as happening at now and a non-positive window
// falls back to DefaultWindow. The batch is ordered by timestamp first.
func (s *Scorer) ScoreBatch(events []models.InteractionEvent, window time.Duration, now time.Time) Result {
	if window <= 0 {
		window = DefaultWindow
	}
	batch := make([]models.InteractionEvent, len(events))
	copy(batch, events)
	for i := range batch {
		if batch[i].Timestamp.IsZero() {
			batch[i].Timestamp = now
		}
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Timestamp.Before(batch[j].Timestamp)
	})
	return s.Score(batch, window, now)
}

// Score sums the heuristics over events and clamps the total to
// [0, MaxScore], never above ScoreCeiling. window is the span the events were
// collected over and converts click counts into a per-minute rate.
func (s *Scorer) Score(events []models.InteractionEvent, window time.Duration, now time.Time) Result {
	res := Result{Events: len(events), At: now}
	if len(events) == 0 {
		return res
	}

	res.Signals = []Signal{
		s.clickRate(events, window),
		s.backtracking(events),
		s.hesitation(events),
		s.formErrors(events),
		s.scrollVolume(events),
		s.mouseErratic(events),
	}

	total := 0
	for _, sig := range res.Signals {
		total += sig.Points
	}
	res.Score = clamp(total, 0, min(s.t.MaxScore, ScoreCeiling))
	return res
}

func (s *Scorer) clickRate(events []models.InteractionEvent, window time.Duration) Signal {
	clicks := 0
	for _, ev := range events {
		if ev.Type == models.InteractionClick {
			clicks++
		}
	}
	minutes := window.Minutes()
	if minutes <= 0 {
		minutes = 1
	}
	rate := float64(clicks) / minutes

	sig := Signal{Name: SignalClickRate, Value: rate}
	switch {
	case rate > s.t.ClickRateHigh:
		sig.Points = s.t.ClickRateHighPoints
	case rate > s.t.ClickRateModerate:
		sig.Points = s.t.ClickRateModPoints
	}
	return sig
}

func (s *Scorer) backtracking(events []models.InteractionEvent) Signal {
	total := 0
	pages := make(map[string]struct{})
	for _, ev := range events {
		if ev.Type != models.InteractionNavigation {
			continue
		}
		total++
		page := ev.Payload.Page
		if page == "" {
			page = ev.Payload.Target
		}
		pages[page] = struct{}{}
	}

	sig := Signal{Name: SignalBacktracking}
	if len(pages) == 0 {
		return sig
	}
	ratio := float64(total) / float64(len(pages))
	sig.Value = ratio
	if ratio > s.t.BacktrackRatio {
		sig.Points = s.t.BacktrackPoints
	}
	return sig
}

// hesitation measures the mean gap between consecutive deliberate
// interactions. Mouse movement is excluded since it streams continuously.
func (s *Scorer) hesitation(events []models.InteractionEvent) Signal {
	sig := Signal{Name: SignalHesitation}

	var prev time.Time
	var sum time.Duration
	gaps := 0
	for _, ev := range events {
		if ev.Type == models.InteractionMouseMove {
			continue
		}
		if !prev.IsZero() {
			sum += ev.Timestamp.Sub(prev)
			gaps++
		}
		prev = ev.Timestamp
	}
	if gaps == 0 {
		return sig
	}

	mean := sum / time.Duration(gaps)
	sig.Value = mean.Seconds()
	switch {
	case mean > s.t.GapHigh:
		sig.Points = s.t.GapHighPoints
	case mean > s.t.GapModerate:
		sig.Points = s.t.GapModeratePoints
	}
	return sig
}

func (s *Scorer) formErrors(events []models.InteractionEvent) Signal {
	n := 0
	for _, ev := range events {
		if ev.Type == models.InteractionFormError {
			n++
		}
	}
	return Signal{
		Name:   SignalFormErrors,
		Value:  float64(n),
		Points: min(n*s.t.FormErrorPoints, s.t.FormErrorCap),
	}
}

func (s *Scorer) scrollVolume(events []models.InteractionEvent) Signal {
	n := 0
	for _, ev := range events {
		if ev.Type == models.InteractionScroll {
			n++
		}
	}
	sig := Signal{Name: SignalScrollVolume, Value: float64(n)}
	if n > s.t.ScrollVolume {
		sig.Points = s.t.ScrollVolumePoints
	}
	return sig
}

// mouseErratic computes the instantaneous speed between consecutive
// mouse_move samples and scores the fraction above MouseSpeed.
func (s *Scorer) mouseErratic(events []models.InteractionEvent) Signal {
	sig := Signal{Name: SignalMouseErratic}

	var prev *models.InteractionEvent
	samples, erratic := 0, 0
	for i := range events {
		ev := &events[i]
		if ev.Type != models.InteractionMouseMove {
			continue
		}
		if prev != nil {
			dt := float64(ev.Timestamp.Sub(prev.Timestamp)) / float64(time.Millisecond)
			if dt > 0 {
				dist := math.Hypot(ev.Payload.X-prev.Payload.X, ev.Payload.Y-prev.Payload.Y)
				samples++
				if dist/dt > s.t.MouseSpeed {
					erratic++
				}
			}
		}
		prev = ev
	}
	if samples == 0 {
		return sig
	}

	ratio := float64(erratic) / float64(samples)
	sig.Value = ratio
	if samples >= s.t.MouseMinSamples && ratio > s.t.MouseErraticRatio {
		sig.Points = s.t.MouseErraticPoints
	}
	return sig
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
