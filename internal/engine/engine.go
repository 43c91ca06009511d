// Package engine is the contextual decision core. It takes the policy
// network's base action plus the observed cat state and produces the final
// behavior: emotion classification, stimulus reaction, stochastic variation,
// and repetition-aware per-cat memory, composed in that order.
package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/talgya/whisker/internal/cat"
	"github.com/talgya/whisker/internal/emotion"
	"github.com/talgya/whisker/internal/reaction"
	"github.com/talgya/whisker/internal/stimulus"
)

// InputError describes a rejected request field. The engine does no partial
// work on invalid input: nothing is sampled and no memory is touched.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Result is the decision returned for one request.
type Result struct {
	Action     cat.Action `json:"action"`
	ActionName string     `json:"action_name"`

	Emotion          emotion.Type      `json:"emotion"`
	EmotionIntensity emotion.Intensity `json:"emotion_intensity"`
	ArousalLevel     float64           `json:"arousal_level"`
	Valence          float64           `json:"valence"`

	MoodChange    float64 `json:"mood_change"`
	AnimationHint string  `json:"animation_hint,omitempty"`
	SoundHint     string  `json:"sound_hint,omitempty"`

	ReactionTriggered  bool    `json:"reaction_triggered"`
	RepetitionOverride bool    `json:"repetition_override"`
	ActivityLevel      float64 `json:"activity_level"`
}

// Stats are the engine's lifetime telemetry counters.
type Stats struct {
	Decisions           uint64 `json:"decisions"`
	ReactionsTriggered  uint64 `json:"reactions_triggered"`
	RepetitionOverrides uint64 `json:"repetition_overrides"`
	TrackedCats         int    `json:"tracked_cats"`
}

// Engine composes the decision pipeline. The reaction table is immutable
// after construction; per-cat state lives in the memory store.
type Engine struct {
	table  *reaction.Table
	memory *Store

	decisions           atomic.Uint64
	reactionsTriggered  atomic.Uint64
	repetitionOverrides atomic.Uint64
}

// New builds an engine around a validated reaction table. Emotion threshold
// profiles are checked here too, so a degenerate configuration fails at
// startup instead of degrading requests.
func New(table *reaction.Table) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("engine: nil reaction table")
	}
	if err := emotion.ValidateProfiles(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{table: table, memory: NewStore()}, nil
}

// Memory exposes the per-cat memory store for inspection and eviction.
func (e *Engine) Memory() *Store {
	return e.memory
}

// Stats returns a snapshot of the telemetry counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Decisions:           e.decisions.Load(),
		ReactionsTriggered:  e.reactionsTriggered.Load(),
		RepetitionOverrides: e.repetitionOverrides.Load(),
		TrackedCats:         e.memory.Size(),
	}
}

// Decide runs the full pipeline for one request. rng is the random source
// for every probabilistic branch in this decision; pass a seeded source for
// reproducible behavior. The memory write happens only once the decision is
// final, so abandoning the result leaves no partial state.
func (e *Engine) Decide(catID string, base cat.Action, state cat.State, rng *rand.Rand) (Result, error) {
	if err := validate(catID, base, state); err != nil {
		return Result{}, err
	}

	activity := e.memory.ActivityLevel(catID)
	emo := emotion.Classify(state.Mood, state.Hunger, state.Energy, activity, state.LoudNoiseLevel)
	stim := stimulus.Extract(state)

	candidate := base
	moodDelta := 0.0
	animationHint := ""
	soundHint := ""
	triggered := false

	if stim.Type != stimulus.None {
		if outcome, ok := e.table.Lookup(stim.Type, emo.Emotion); ok {
			// Bernoulli trial, scaled by how strong the stimulus was.
			if rng.Float64() < outcome.TriggerProb*stim.Intensity {
				candidate = sampleWeighted(outcome.ActionWeights, base, rng)
				moodDelta = outcome.MoodDelta
				animationHint = outcome.AnimationHint
				soundHint = outcome.SoundHint
				triggered = true
			}
		}
	}

	if !triggered {
		candidate = vary(base, state.Mood, state.Energy, e.memory.Restlessness(catID), rng)
	}

	final, overridden := e.memory.Commit(catID, candidate, clampMood(state.Mood+moodDelta),
		func(c cat.Action) cat.Action { return randomOther(c, rng) })

	e.decisions.Add(1)
	if triggered {
		e.reactionsTriggered.Add(1)
	}
	if overridden {
		e.repetitionOverrides.Add(1)
	}

	return Result{
		Action:             final,
		ActionName:         final.Name(),
		Emotion:            emo.Emotion,
		EmotionIntensity:   emo.Intensity,
		ArousalLevel:       emo.Arousal,
		Valence:            emo.Valence,
		MoodChange:         moodDelta,
		AnimationHint:      animationHint,
		SoundHint:          soundHint,
		ReactionTriggered:  triggered,
		RepetitionOverride: overridden,
		ActivityLevel:      activity,
	}, nil
}

func validate(catID string, base cat.Action, state cat.State) error {
	if catID == "" {
		return &InputError{Field: "cat_id", Reason: "must not be empty"}
	}
	if !base.Valid() {
		return &InputError{Field: "base_action", Reason: fmt.Sprintf("%d outside action space [0,%d)", base, cat.NumActions)}
	}
	for _, g := range []struct {
		name     string
		val, max float64
	}{
		{"hunger", state.Hunger, cat.MaxGauge},
		{"energy", state.Energy, cat.MaxGauge},
		{"mood", state.Mood, cat.MaxGauge},
		{"distance_to_food", state.DistanceToFood, cat.MaxDistance},
		{"distance_to_toy", state.DistanceToToy, cat.MaxDistance},
	} {
		if math.IsNaN(g.val) || math.IsInf(g.val, 0) {
			return &InputError{Field: g.name, Reason: "must be finite"}
		}
		if g.val < 0 || g.val > g.max {
			return &InputError{Field: g.name, Reason: fmt.Sprintf("%.2f outside [0,%.0f]", g.val, g.max)}
		}
	}
	if state.LoudNoiseLevel < 0 || state.LoudNoiseLevel > 1 {
		return &InputError{Field: "loud_noise_level", Reason: fmt.Sprintf("%.2f outside [0,1]", state.LoudNoiseLevel)}
	}
	return nil
}

func clampMood(m float64) float64 {
	if m < 0 {
		return 0
	}
	if m > cat.MaxGauge {
		return cat.MaxGauge
	}
	return m
}
