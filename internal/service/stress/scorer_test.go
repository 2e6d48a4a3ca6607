package stress

import (
	"testing"
	"time"

	"sense-adaptive-core/internal/models"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func event(typ models.InteractionType, ago time.Duration) models.InteractionEvent {
	return models.InteractionEvent{Type: typ, Timestamp: testNow.Add(-ago)}
}

// burst returns n events of typ spaced step apart, ending at testNow.
func burst(typ models.InteractionType, n int, step time.Duration) []models.InteractionEvent {
	out := make([]models.InteractionEvent, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, event(typ, time.Duration(i)*step))
	}
	return out
}

func signal(t *testing.T, res Result, name string) Signal {
	t.Helper()
	for _, s := range res.Signals {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("signal %s missing", name)
	return Signal{}
}

func TestScore_EmptyWindow(t *testing.T) {
	res := NewScorer(DefaultThresholds()).Score(nil, DefaultWindow, testNow)

	if res.Score != 0 {
		t.Errorf("expected 0, got %d", res.Score)
	}
	if len(res.Triggered()) != 0 {
		t.Errorf("expected no triggered signals, got %v", res.Triggered())
	}
}

func TestScore_ClickRateAlone(t *testing.T) {
	events := burst(models.InteractionClick, 25, 2*time.Second)

	res := NewScorer(DefaultThresholds()).Score(events, DefaultWindow, testNow)

	if res.Score < 3 {
		t.Errorf("expected score >= 3, got %d", res.Score)
	}
	if sig := signal(t, res, SignalClickRate); sig.Points != 3 {
		t.Errorf("expected click rate to contribute 3, got %d", sig.Points)
	}
	if triggered := res.Triggered(); len(triggered) != 1 {
		t.Errorf("expected only click rate to trigger, got %v", triggered)
	}
}

func TestScore_Heuristics(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	tests := []struct {
		name   string
		events []models.InteractionEvent
		signal string
		points int
	}{
		{"moderate clicks", burst(models.InteractionClick, 12, time.Second), SignalClickRate, 1},
		{"calm clicks", burst(models.InteractionClick, 5, time.Second), SignalClickRate, 0},
		{"long hesitation", []models.InteractionEvent{
			event(models.InteractionKeypress, 50*time.Second),
			event(models.InteractionKeypress, 10*time.Second),
		}, SignalHesitation, 3},
		{"moderate hesitation", []models.InteractionEvent{
			event(models.InteractionKeypress, 30*time.Second),
			event(models.InteractionKeypress, 10*time.Second),
		}, SignalHesitation, 2},
		{"one form error", []models.InteractionEvent{event(models.InteractionFormError, time.Second)}, SignalFormErrors, 2},
		{"form errors capped", burst(models.InteractionFormError, 5, time.Second), SignalFormErrors, 4},
		{"heavy scrolling", burst(models.InteractionScroll, 31, 100*time.Millisecond), SignalScrollVolume, 1},
		{"light scrolling", burst(models.InteractionScroll, 30, 100*time.Millisecond), SignalScrollVolume, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Score(tt.events, DefaultWindow, testNow)
			if sig := signal(t, res, tt.signal); sig.Points != tt.points {
				t.Errorf("expected %d points, got %d (value %.2f)", tt.points, sig.Points, sig.Value)
			}
		})
	}
}

func navigation(page string, ago time.Duration) models.InteractionEvent {
	ev := event(models.InteractionNavigation, ago)
	ev.Payload.Page = page
	return ev
}

func TestScore_Backtracking(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	revisits := []models.InteractionEvent{
		navigation("/products", 7*time.Second),
		navigation("/cart", 6*time.Second),
		navigation("/products", 5*time.Second),
		navigation("/cart", 4*time.Second),
		navigation("/products", 3*time.Second),
		navigation("/cart", 2*time.Second),
		navigation("/products", time.Second),
	}
	if sig := signal(t, s.Score(revisits, DefaultWindow, testNow), SignalBacktracking); sig.Points != 2 {
		t.Errorf("expected backtracking to contribute 2, got %d", sig.Points)
	}

	forward := []models.InteractionEvent{
		navigation("/", 3*time.Second),
		navigation("/products", 2*time.Second),
		navigation("/cart", time.Second),
	}
	if sig := signal(t, s.Score(forward, DefaultWindow, testNow), SignalBacktracking); sig.Points != 0 {
		t.Errorf("expected no backtracking points, got %d", sig.Points)
	}
}

func mouse(x, y float64, ago time.Duration) models.InteractionEvent {
	ev := event(models.InteractionMouseMove, ago)
	ev.Payload.X, ev.Payload.Y = x, y
	return ev
}

func TestScore_ErraticMouse(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	var fast, slow []models.InteractionEvent
	for i := 0; i < 10; i++ {
		ago := time.Duration(10-i) * 10 * time.Millisecond
		fast = append(fast, mouse(float64(i%2)*200, 0, ago))
		slow = append(slow, mouse(float64(i), 0, ago))
	}

	if sig := signal(t, s.Score(fast, DefaultWindow, testNow), SignalMouseErratic); sig.Points != 2 {
		t.Errorf("expected erratic movement to contribute 2, got %d", sig.Points)
	}
	if sig := signal(t, s.Score(slow, DefaultWindow, testNow), SignalMouseErratic); sig.Points != 0 {
		t.Errorf("expected calm movement to contribute 0, got %d", sig.Points)
	}
}

func TestScore_MouseMovesDoNotMaskHesitation(t *testing.T) {
	events := []models.InteractionEvent{
		event(models.InteractionClick, 50*time.Second),
		mouse(0, 0, 40*time.Second),
		mouse(1, 0, 30*time.Second),
		mouse(2, 0, 20*time.Second),
		event(models.InteractionClick, 10*time.Second),
	}

	res := NewScorer(DefaultThresholds()).Score(events, DefaultWindow, testNow)
	if sig := signal(t, res, SignalHesitation); sig.Points != 3 {
		t.Errorf("expected hesitation 3, got %d (mean %.1fs)", sig.Points, sig.Value)
	}
}

func TestScore_ClampedToMax(t *testing.T) {
	var events []models.InteractionEvent
	events = append(events, burst(models.InteractionClick, 25, 100*time.Millisecond)...)
	events = append(events, burst(models.InteractionFormError, 3, 100*time.Millisecond)...)
	events = append(events, burst(models.InteractionScroll, 35, 100*time.Millisecond)...)
	for i := 0; i < 9; i++ {
		page := "/products"
		if i%2 == 1 {
			page = "/cart"
		}
		events = append(events, navigation(page, time.Duration(i)*100*time.Millisecond))
	}
	for i := 0; i < 10; i++ {
		events = append(events, mouse(float64(i%2)*300, 0, time.Duration(10-i)*10*time.Millisecond))
	}

	res := NewScorer(DefaultThresholds()).Score(events, DefaultWindow, testNow)
	if res.Score != 10 {
		t.Errorf("expected clamped score 10, got %d", res.Score)
	}

	sum := 0
	for _, sig := range res.Signals {
		sum += sig.Points
	}
	if sum <= 10 {
		t.Errorf("expected raw total above 10 for this window, got %d", sum)
	}
}

func TestScore_AlwaysInRange(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	windows := [][]models.InteractionEvent{
		nil,
		burst(models.InteractionBlur, 1, time.Second),
		burst(models.InteractionClick, 150, 10*time.Millisecond),
		burst(models.InteractionFormError, 150, 10*time.Millisecond),
		burst(models.InteractionVisibilityChange, 3, 25*time.Second),
	}
	for i, w := range windows {
		res := s.Score(w, DefaultWindow, testNow)
		if res.Score < 0 || res.Score > 10 {
			t.Errorf("window %d: score %d out of range", i, res.Score)
		}
	}
}

func TestScoreBatch_FillsTimestampsAndWindow(t *testing.T) {
	events := make([]models.InteractionEvent, 22)
	for i := range events {
		events[i] = models.InteractionEvent{Type: models.InteractionClick}
	}

	res := NewScorer(DefaultThresholds()).ScoreBatch(events, 0, testNow)

	if sig := signal(t, res, SignalClickRate); sig.Points != 3 {
		t.Errorf("expected click rate to contribute 3, got %d", sig.Points)
	}
	if !events[0].Timestamp.IsZero() {
		t.Error("expected caller's events to be left untouched")
	}
}

func TestScore_OversizedMaxScoreStaysWithinCeiling(t *testing.T) {
	th := DefaultThresholds()
	th.MaxScore = 20
	th.ClickRateHighPoints = 15

	res := NewScorer(th).Score(burst(models.InteractionClick, 25, time.Second), DefaultWindow, testNow)
	if res.Score != ScoreCeiling {
		t.Errorf("expected score %d, got %d", ScoreCeiling, res.Score)
	}
}

func TestScoreBatch_OrdersByTimestamp(t *testing.T) {
	events := []models.InteractionEvent{
		event(models.InteractionClick, 0),
		event(models.InteractionClick, 40*time.Second),
		event(models.InteractionClick, 20*time.Second),
	}

	res := NewScorer(DefaultThresholds()).ScoreBatch(events, DefaultWindow, testNow)
	sig := signal(t, res, SignalHesitation)
	if sig.Value != 20 {
		t.Errorf("expected mean gap 20s, got %.1fs", sig.Value)
	}
	if sig.Points != 2 {
		t.Errorf("expected hesitation 2, got %d", sig.Points)
	}
}
