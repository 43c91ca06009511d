// Heuristic fallback policy. Mirrors the reward shape the network was
// trained against, so behavior stays plausible when no model file is
// deployed (fresh installs, CI, the offline simulator).
package policy

import (
	"github.com/talgya/whisker/internal/cat"
)

// Urgency thresholds matching the training environment.
const (
	hungryThreshold        = 70.0
	tiredThreshold         = 30.0
	criticalTiredThreshold = 15.0
)

// Heuristic is a deterministic rule policy over the observation.
type Heuristic struct{}

// NewHeuristic returns the rule-based fallback predictor.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Name() string { return "heuristic" }

// Predict picks the most urgent sensible action: sleep when critically
// tired, seek food when hungry, play when fresh and a toy is close,
// otherwise idle or wander by mood.
func (h *Heuristic) Predict(obs Observation) (cat.Action, error) {
	hunger := obs[ObsHunger]
	energy := obs[ObsEnergy]
	mood := obs[ObsMood]

	switch {
	case energy < criticalTiredThreshold:
		return cat.ActionSleep, nil
	case hunger > hungryThreshold && obs[ObsDistanceFood] > 0:
		return cat.ActionMoveToFood, nil
	case hunger > hungryThreshold:
		return cat.ActionMeowAtBowl, nil
	case energy < tiredThreshold:
		return cat.ActionSleep, nil
	case energy > 60 && obs[ObsDistanceToy] < 3:
		return cat.ActionPlay, nil
	case energy > 60 && mood > 50:
		return cat.ActionMoveToToy, nil
	case mood > 60:
		return cat.ActionExplore, nil
	default:
		return cat.ActionIdle, nil
	}
}
