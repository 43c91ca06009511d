// Package cat provides the shared domain model: the action space, the
// observed cat state posted by the game engine, and personality traits.
package cat

// Action is one of the 8 discrete behaviors the policy network was trained on.
type Action uint8

const (
	ActionIdle       Action = iota
	ActionMoveToFood        // Walk toward the food bowl
	ActionMoveToToy         // Walk toward the nearest toy
	ActionSleep
	ActionGroom
	ActionPlay
	ActionExplore
	ActionMeowAtBowl // Stand at the bowl and complain
)

// NumActions is the size of the action space.
const NumActions = 8

var actionNames = [NumActions]string{
	"idle", "move_to_food", "move_to_toy", "sleep",
	"groom", "play", "explore", "meow_at_bowl",
}

// Name returns the canonical label for an action, or "unknown" when the
// index is outside the action space.
func (a Action) Name() string {
	if int(a) >= NumActions {
		return "unknown"
	}
	return actionNames[a]
}

// Valid reports whether the action index is inside the action space.
func (a Action) Valid() bool {
	return int(a) < NumActions
}

// IsActive reports whether an action counts toward the activity level.
// Idle, sleep, groom, and meowing are sedentary.
func (a Action) IsActive() bool {
	switch a {
	case ActionMoveToFood, ActionMoveToToy, ActionPlay, ActionExplore:
		return true
	}
	return false
}

// Personality selects which trait profile shapes a cat's decisions.
type Personality string

const (
	PersonalityBalanced Personality = "balanced"
	PersonalityLazy     Personality = "lazy"
	PersonalityFoodie   Personality = "foodie"
	PersonalityPlayful  Personality = "playful"
)

// Valid reports whether p is a known personality.
func (p Personality) Valid() bool {
	switch p {
	case PersonalityBalanced, PersonalityLazy, PersonalityFoodie, PersonalityPlayful:
		return true
	}
	return false
}

// State is the observed cat state for one decision request. Core gauges are
// 0–100, distances 0–10. The transport layer range-checks before the engine
// sees it.
type State struct {
	CatID       string      `json:"cat_id,omitempty"`
	Personality Personality `json:"personality,omitempty"`

	Hunger         float64 `json:"hunger"`
	Energy         float64 `json:"energy"`
	Mood           float64 `json:"mood"`
	DistanceToFood float64 `json:"distance_to_food"`
	DistanceToToy  float64 `json:"distance_to_toy"`

	// Environmental stimulus flags.
	IsBeingPetted    bool    `json:"is_being_petted"`
	IsPlayerCalling  bool    `json:"is_player_calling"`
	LoudNoiseLevel   float64 `json:"loud_noise_level"`
	NewToyAppeared   bool    `json:"new_toy_appeared"`
	FoodBowlRefilled bool    `json:"food_bowl_refilled"`
	PlayerNearby     bool    `json:"player_nearby"`
	PlayerDistance   float64 `json:"player_distance"`
	SuddenMovement   bool    `json:"sudden_movement"`
}

// Gauge bounds for the observed state.
const (
	MaxGauge    = 100.0 // hunger, energy, mood
	MaxDistance = 10.0  // food/toy distances
)
