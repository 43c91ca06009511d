// Package stimulus reduces the raw environmental flags on a request to at
// most one active stimulus, by fixed precedence.
package stimulus

import "github.com/talgya/whisker/internal/cat"

// Type is a discrete environmental trigger.
type Type string

const (
	PlayerPet      Type = "player_pet"
	PlayerCall     Type = "player_call"
	LoudNoise      Type = "loud_noise"
	NewToy         Type = "new_toy"
	FoodRefill     Type = "food_refill"
	PlayerApproach Type = "player_approach"
	SuddenMovement Type = "sudden_movement"
	None           Type = "none"
)

// noiseFloor is the minimum loud_noise_level that counts as a noise stimulus.
const noiseFloor = 0.3

// approachRange is the player distance inside which an approach registers.
const approachRange = 20.0

// Stimulus pairs a trigger with its intensity (0..1). Intensity scales the
// reaction trigger probability downstream.
type Stimulus struct {
	Type      Type
	Intensity float64
}

// Extract returns the single highest-precedence active stimulus for the
// observed state. Precedence, most urgent first: loud noise, sudden movement,
// petting, food refill, new toy, player call, player approach. Pure function;
// returns {None, 0} when nothing is active.
func Extract(s cat.State) Stimulus {
	if s.LoudNoiseLevel > noiseFloor {
		return Stimulus{Type: LoudNoise, Intensity: s.LoudNoiseLevel}
	}
	if s.SuddenMovement {
		return Stimulus{Type: SuddenMovement, Intensity: 0.8}
	}
	if s.IsBeingPetted {
		return Stimulus{Type: PlayerPet, Intensity: 1.0}
	}
	if s.FoodBowlRefilled {
		return Stimulus{Type: FoodRefill, Intensity: 1.0}
	}
	if s.NewToyAppeared {
		return Stimulus{Type: NewToy, Intensity: 1.0}
	}
	if s.IsPlayerCalling {
		return Stimulus{Type: PlayerCall, Intensity: 1.0}
	}
	if s.PlayerNearby && s.PlayerDistance < approachRange {
		return Stimulus{Type: PlayerApproach, Intensity: 1.0 - s.PlayerDistance/approachRange}
	}
	return Stimulus{Type: None}
}
