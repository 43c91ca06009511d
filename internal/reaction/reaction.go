// Package reaction holds the (stimulus, emotion) → outcome rule table.
// The table is data, not logic: behavior changes are new rows, never new
// branches in the engine. It is built and validated once at startup and is
// immutable afterward, so it may be shared across requests without locking.
package reaction

import (
	"fmt"

	"github.com/talgya/whisker/internal/cat"
	"github.com/talgya/whisker/internal/emotion"
	"github.com/talgya/whisker/internal/stimulus"
)

// Key identifies one rule.
type Key struct {
	Stimulus stimulus.Type
	Emotion  emotion.Type
}

// Outcome is the configured reaction for a matched rule. ActionWeights are
// relative weights over candidate actions (normalized at sampling time); an
// empty map keeps the base action. TriggerProb is the chance the reaction
// fires at full stimulus intensity.
type Outcome struct {
	ActionWeights map[cat.Action]float64
	MoodDelta     float64
	AnimationHint string
	SoundHint     string
	TriggerProb   float64
}

// Table is an immutable exact-match lookup over reaction rules.
type Table struct {
	rules map[Key]Outcome
}

// New validates the given rules and builds a lookup table.
func New(rules map[Key]Outcome) (*Table, error) {
	for k, o := range rules {
		if o.TriggerProb < 0 || o.TriggerProb > 1 {
			return nil, fmt.Errorf("rule (%s, %s): trigger probability %.2f outside [0,1]",
				k.Stimulus, k.Emotion, o.TriggerProb)
		}
		total := 0.0
		for a, w := range o.ActionWeights {
			if !a.Valid() {
				return nil, fmt.Errorf("rule (%s, %s): action %d outside action space",
					k.Stimulus, k.Emotion, a)
			}
			if w < 0 {
				return nil, fmt.Errorf("rule (%s, %s): negative weight for %s",
					k.Stimulus, k.Emotion, a.Name())
			}
			total += w
		}
		if len(o.ActionWeights) > 0 && total == 0 {
			return nil, fmt.Errorf("rule (%s, %s): all action weights are zero",
				k.Stimulus, k.Emotion)
		}
	}
	return &Table{rules: rules}, nil
}

// Lookup returns the outcome for an exact (stimulus, emotion) key. The
// second return is false when no rule is configured; the caller then takes
// the stochastic path.
func (t *Table) Lookup(s stimulus.Type, e emotion.Type) (Outcome, bool) {
	o, ok := t.rules[Key{Stimulus: s, Emotion: e}]
	return o, ok
}

// Len returns the number of configured rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Default returns the stock reaction table. Tuning pass history lives in the
// asset repo; deltas here are per-decision mood shifts on the 0–100 scale.
func Default() *Table {
	rules := map[Key]Outcome{
		{stimulus.PlayerPet, emotion.Happy}: {
			ActionWeights: map[cat.Action]float64{cat.ActionGroom: 0.6, cat.ActionIdle: 0.3},
			MoodDelta:     15, AnimationHint: "purr", SoundHint: "purr", TriggerProb: 0.85,
		},
		{stimulus.PlayerPet, emotion.Content}: {
			ActionWeights: map[cat.Action]float64{cat.ActionGroom: 0.5, cat.ActionIdle: 0.4},
			MoodDelta:     10, AnimationHint: "purr", SoundHint: "purr_soft", TriggerProb: 0.7,
		},
		{stimulus.PlayerPet, emotion.Grumpy}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.5},
			MoodDelta:     -5, AnimationHint: "tail_flick", SoundHint: "meow_annoyed", TriggerProb: 0.6,
		},
		{stimulus.PlayerPet, emotion.Sleepy}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.7, cat.ActionSleep: 0.2},
			MoodDelta:     -2, AnimationHint: "ear_twitch", TriggerProb: 0.8,
		},
		{stimulus.LoudNoise, emotion.Content}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.7},
			MoodDelta:     -15, AnimationHint: "startle", TriggerProb: 0.9,
		},
		{stimulus.LoudNoise, emotion.Anxious}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.5},
			MoodDelta:     -25, AnimationHint: "hide", SoundHint: "hiss", TriggerProb: 0.95,
		},
		{stimulus.LoudNoise, emotion.Scared}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 1.0},
			MoodDelta:     -30, AnimationHint: "run_hide", TriggerProb: 1.0,
		},
		{stimulus.NewToy, emotion.Playful}: {
			ActionWeights: map[cat.Action]float64{cat.ActionMoveToToy: 0.7, cat.ActionPlay: 0.2},
			MoodDelta:     20, AnimationHint: "excited", SoundHint: "meow_excited", TriggerProb: 0.8,
		},
		{stimulus.NewToy, emotion.Curious}: {
			ActionWeights: map[cat.Action]float64{cat.ActionExplore: 0.5, cat.ActionMoveToToy: 0.3},
			MoodDelta:     10, AnimationHint: "investigate", TriggerProb: 0.7,
		},
		{stimulus.NewToy, emotion.Sleepy}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.6, cat.ActionSleep: 0.3},
			MoodDelta:     2, AnimationHint: "lazy_look", TriggerProb: 0.3,
		},
		{stimulus.FoodRefill, emotion.Hungry}: {
			ActionWeights: map[cat.Action]float64{cat.ActionMoveToFood: 0.8, cat.ActionMeowAtBowl: 0.1},
			MoodDelta:     25, AnimationHint: "run_to_food", SoundHint: "meow_happy", TriggerProb: 0.95,
		},
		{stimulus.FoodRefill, emotion.Demanding}: {
			ActionWeights: map[cat.Action]float64{cat.ActionMoveToFood: 0.9},
			MoodDelta:     20, AnimationHint: "rush_food", SoundHint: "meow_urgent", TriggerProb: 1.0,
		},
		{stimulus.FoodRefill, emotion.Content}: {
			ActionWeights: map[cat.Action]float64{cat.ActionMoveToFood: 0.4, cat.ActionIdle: 0.4},
			MoodDelta:     5, AnimationHint: "casual_approach", TriggerProb: 0.5,
		},
		{stimulus.PlayerCall, emotion.Affectionate}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.5},
			MoodDelta:     10, AnimationHint: "come_running", SoundHint: "meow_response", TriggerProb: 0.8,
		},
		{stimulus.PlayerCall, emotion.Playful}: {
			ActionWeights: map[cat.Action]float64{cat.ActionPlay: 0.4, cat.ActionIdle: 0.3},
			MoodDelta:     12, AnimationHint: "playful_approach", SoundHint: "chirp", TriggerProb: 0.7,
		},
		{stimulus.PlayerCall, emotion.Grumpy}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.7},
			MoodDelta:     -3, AnimationHint: "ignore", TriggerProb: 0.6,
		},
		{stimulus.PlayerApproach, emotion.Affectionate}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.5, cat.ActionGroom: 0.3},
			MoodDelta:     8, AnimationHint: "rub_legs", SoundHint: "purr", TriggerProb: 0.7,
		},
		{stimulus.PlayerApproach, emotion.Scared}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.8},
			MoodDelta:     -10, AnimationHint: "back_away", TriggerProb: 0.8,
		},
		{stimulus.SuddenMovement, emotion.Anxious}: {
			ActionWeights: map[cat.Action]float64{cat.ActionIdle: 0.7},
			MoodDelta:     -12, AnimationHint: "alert", TriggerProb: 0.8,
		},
	}

	t, err := New(rules)
	if err != nil {
		// The stock table is compile-time data; a validation failure here is
		// a programming error.
		panic(err)
	}
	return t
}
