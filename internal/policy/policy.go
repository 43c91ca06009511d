// Package policy supplies the base action: the pretrained network's
// deterministic pick for an observation, before the contextual engine makes
// it lifelike. Three predictors are provided — a local MLP loaded from a
// versioned model directory, a remote inference server client, and a
// heuristic fallback for deployments with no model at all.
package policy

import (
	"github.com/talgya/whisker/internal/cat"
)

// Observation layout fed to the policy network. Trait scores let one shared
// network express different personalities: the observation is warped per
// cat, not the weights.
const (
	ObsHunger = iota
	ObsEnergy
	ObsDistanceFood
	ObsDistanceToy
	ObsMood
	ObsLazy
	ObsFoodie
	ObsPlayful

	ObsDim
)

// Observation is the personality-adjusted input vector.
type Observation [ObsDim]float64

// Predictor produces the deterministic base action for an observation.
type Predictor interface {
	Predict(obs Observation) (cat.Action, error)
	Name() string
}

// Traits are the 0..1 personality scores shaping observation scaling.
type Traits struct {
	Lazy    float64 `json:"lazy"`
	Foodie  float64 `json:"foodie"`
	Playful float64 `json:"playful"`
}

// TraitsFor returns the stock trait profile for a personality.
func TraitsFor(p cat.Personality) Traits {
	switch p {
	case cat.PersonalityLazy:
		return Traits{Lazy: 0.8, Foodie: 0.4, Playful: 0.2}
	case cat.PersonalityFoodie:
		return Traits{Lazy: 0.4, Foodie: 0.9, Playful: 0.3}
	case cat.PersonalityPlayful:
		return Traits{Lazy: 0.1, Foodie: 0.3, Playful: 0.9}
	default:
		return Traits{Lazy: 0.4, Foodie: 0.4, Playful: 0.4}
	}
}

// Personality warp factors. A foodie's hunger looms larger, a lazy cat
// perceives less energy, a playful cat perceives toys as closer.
const (
	foodieHungerGain = 0.5
	lazyEnergyDamp   = 0.3
	playfulToyShrink = 0.4
)

// BuildObservation assembles the personality-adjusted observation for one
// request. Warped gauges stay inside their declared ranges.
func BuildObservation(s cat.State, t Traits) Observation {
	hunger := s.Hunger * (1 + foodieHungerGain*t.Foodie)
	if hunger > cat.MaxGauge {
		hunger = cat.MaxGauge
	}
	energy := s.Energy * (1 - lazyEnergyDamp*t.Lazy)
	distToy := s.DistanceToToy * (1 - playfulToyShrink*t.Playful)

	return Observation{
		ObsHunger:       hunger,
		ObsEnergy:       energy,
		ObsDistanceFood: s.DistanceToFood,
		ObsDistanceToy:  distToy,
		ObsMood:         s.Mood,
		ObsLazy:         t.Lazy,
		ObsFoodie:       t.Foodie,
		ObsPlayful:      t.Playful,
	}
}
