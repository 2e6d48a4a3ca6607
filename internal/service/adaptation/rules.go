package adaptation

import (
	"fmt"

	"sense-adaptive-core/internal/models"
)

// Rule turns adaptations on once the stress score reaches MinStress. Profile
// rules also require their condition flag; global rules apply to everyone.
type Rule struct {
	Name      string
	MinStress int
	Applies   func(models.NeurodiversityProfile) bool
	Keys      []models.AdaptationKey
}

func (r Rule) matches(score int, p models.NeurodiversityProfile) bool {
	if score < r.MinStress {
		return false
	}
	return r.Applies == nil || r.Applies(p)
}

// Trigger describes why a rule fired.
func (r Rule) Trigger() string {
	return fmt.Sprintf("%s>=%d", r.Name, r.MinStress)
}

// ProfileRules are evaluated before the global bands.
var ProfileRules = []Rule{
	{
		Name: "autism", MinStress: 3,
		Applies: func(p models.NeurodiversityProfile) bool { return p.Autism },
		Keys:    []models.AdaptationKey{models.ReducedColors, models.CalmingMode, models.SimplifiedLayout},
	},
	{
		Name: "adhd", MinStress: 4,
		Applies: func(p models.NeurodiversityProfile) bool { return p.ADHD },
		Keys:    []models.AdaptationKey{models.DistractionFree, models.FocusMode, models.ReducedAnimations},
	},
	{
		Name: "dyslexia", MinStress: 3,
		Applies: func(p models.NeurodiversityProfile) bool { return p.Dyslexia },
		Keys:    []models.AdaptationKey{models.DyslexiaFont, models.IncreasedSpacing, models.LargeText},
	},
	{
		Name: "anxiety", MinStress: 3,
		Applies: func(p models.NeurodiversityProfile) bool { return p.Anxiety },
		Keys:    []models.AdaptationKey{models.CalmingMode, models.SlowMode, models.Reassurance},
	},
	{
		Name: "cognitiveLoad", MinStress: 4,
		Applies: func(p models.NeurodiversityProfile) bool { return p.CognitiveLoad },
		Keys:    []models.AdaptationKey{models.SimplifiedLayout, models.SlowMode, models.FocusMode},
	},
	{
		Name: "sensoryOverload", MinStress: 3,
		Applies: func(p models.NeurodiversityProfile) bool { return p.SensoryOverload },
		Keys:    []models.AdaptationKey{models.ReducedMotion, models.ReducedColors, models.ReducedAnimations, models.CalmingMode},
	},
}

// GlobalRules apply regardless of profile.
var GlobalRules = []Rule{
	{
		Name: "stress", MinStress: 7,
		Keys: []models.AdaptationKey{models.CalmingMode, models.SimplifiedLayout, models.ReducedMotion},
	},
	{
		Name: "stress", MinStress: 5,
		Keys: []models.AdaptationKey{models.FocusMode, models.DistractionFree},
	},
}

// DefaultRules is the full rule set in evaluation order.
func DefaultRules() []Rule {
	out := make([]Rule, 0, len(ProfileRules)+len(GlobalRules))
	out = append(out, ProfileRules...)
	return append(out, GlobalRules...)
}

// Evaluate returns the keys the rules want on for score and profile, in first
// trigger order without duplicates, plus the triggers that fired.
func Evaluate(rules []Rule, score int, p models.NeurodiversityProfile) ([]models.AdaptationKey, []string) {
	var keys []models.AdaptationKey
	var triggers []string
	seen := make(map[models.AdaptationKey]bool)
	for _, r := range rules {
		if !r.matches(score, p) {
			continue
		}
		triggers = append(triggers, r.Trigger())
		for _, k := range r.Keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys, triggers
}
