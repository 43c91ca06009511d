// Stochastic variation — the anti-determinism layer that runs when no
// reaction fires. Every random draw goes through the injected source so
// tests can pin outcomes with a fixed seed.
package engine

import (
	"math/rand"
	"sort"

	"github.com/talgya/whisker/internal/cat"
)

// Deviation tuning. The policy network is treated as ~75% trustworthy; the
// remainder is where the cat gets to be a cat.
const (
	baseDeviationRate = 0.20
	lowMoodBonus      = 0.10 // sulky cats are erratic
	highMoodBonus     = 0.05
	policyConfidence  = 0.75

	lowMoodCutoff  = 30.0
	highMoodCutoff = 80.0

	// restlessnessGain scales how far the drift field can push the
	// deviation rate, ±50% at the extremes.
	restlessnessGain = 0.5
)

// quirk is a spontaneous action substitution with its own trigger chance.
type quirk struct {
	action cat.Action
	prob   float64
}

var baseQuirks = []quirk{
	{cat.ActionGroom, 0.05},
	{cat.ActionExplore, 0.03},
	{cat.ActionMeowAtBowl, 0.02},
}

// vary returns the action to take when no reaction outcome was selected.
// First the quirk pool gets a chance to interject; failing that, the base
// action may be swapped for a uniformly drawn alternative at a rate shaped
// by mood and the cat's restlessness drift.
func vary(base cat.Action, mood, energy, restlessness float64, rng *rand.Rand) cat.Action {
	quirks := baseQuirks
	if mood > 70 {
		quirks = append(quirks[:len(quirks):len(quirks)], quirk{cat.ActionPlay, 0.04})
	}
	if energy < 40 {
		quirks = append(quirks[:len(quirks):len(quirks)], quirk{cat.ActionSleep, 0.06})
	}
	for _, q := range quirks {
		if rng.Float64() < q.prob {
			return q.action
		}
	}

	rate := baseDeviationRate
	if mood < lowMoodCutoff {
		rate += lowMoodBonus
	} else if mood > highMoodCutoff {
		rate += highMoodBonus
	}
	rate *= 1 - policyConfidence
	rate *= 1 + restlessnessGain*restlessness

	if rng.Float64() < rate {
		return randomOther(base, rng)
	}
	return base
}

// randomOther draws uniformly from the action space excluding exclude.
func randomOther(exclude cat.Action, rng *rand.Rand) cat.Action {
	n := rng.Intn(cat.NumActions - 1)
	if cat.Action(n) >= exclude {
		n++
	}
	return cat.Action(n)
}

// sampleWeighted draws one action from a weight map, normalizing at sample
// time. Keys are visited in index order so a fixed seed gives a fixed draw.
// Returns fallback when the map is empty.
func sampleWeighted(weights map[cat.Action]float64, fallback cat.Action, rng *rand.Rand) cat.Action {
	if len(weights) == 0 {
		return fallback
	}

	actions := make([]cat.Action, 0, len(weights))
	total := 0.0
	for a, w := range weights {
		actions = append(actions, a)
		total += w
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })

	r := rng.Float64() * total
	for _, a := range actions {
		r -= weights[a]
		if r < 0 {
			return a
		}
	}
	return actions[len(actions)-1]
}
