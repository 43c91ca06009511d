// Command catsim drives simulated cats through the full decision pipeline
// offline: environment dynamics, base policy, contextual engine. Useful for
// eyeballing behavior distributions after tuning the reaction table and for
// reproducing reports with a fixed seed.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/talgya/whisker/internal/cat"
	"github.com/talgya/whisker/internal/emotion"
	"github.com/talgya/whisker/internal/engine"
	"github.com/talgya/whisker/internal/policy"
	"github.com/talgya/whisker/internal/reaction"
)

// Environment dynamics per step, matching the training environment.
const (
	hungerPerStep = 1.0
	energyPerStep = 0.5
	foodReduction = 30.0
	sleepGain     = 10.0
	moveDistance  = 1.0
)

func main() {
	cats := flag.Int("cats", 5, "number of simulated cats")
	steps := flag.Int("steps", 1000, "decision steps per cat")
	seed := flag.Int64("seed", 42, "simulation seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	eng, err := engine.New(reaction.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}
	predictor := policy.NewHeuristic()

	actionCounts := make(map[cat.Action]uint64)
	emotionCounts := make(map[emotion.Type]uint64)

	personalities := []cat.Personality{
		cat.PersonalityBalanced, cat.PersonalityLazy,
		cat.PersonalityFoodie, cat.PersonalityPlayful,
	}

	for c := 0; c < *cats; c++ {
		catID := fmt.Sprintf("sim-%03d", c)
		personality := personalities[c%len(personalities)]
		traits := policy.TraitsFor(personality)
		rng := rand.New(rand.NewSource(*seed + int64(c)))

		state := cat.State{
			CatID:          catID,
			Personality:    personality,
			Hunger:         20 + rng.Float64()*30,
			Energy:         40 + rng.Float64()*30,
			Mood:           50,
			DistanceToFood: 5 + rng.Float64()*5,
			DistanceToToy:  5 + rng.Float64()*5,
		}

		for i := 0; i < *steps; i++ {
			injectStimuli(&state, rng)

			base, _ := predictor.Predict(policy.BuildObservation(state, traits))
			result, err := eng.Decide(catID, base, state, rng)
			if err != nil {
				fmt.Fprintln(os.Stderr, "decide:", err)
				os.Exit(1)
			}

			actionCounts[result.Action]++
			emotionCounts[result.Emotion]++
			stepEnvironment(&state, result, rng)
		}
	}

	printSummary(*cats, *steps, eng.Stats(), actionCounts, emotionCounts)
}

// injectStimuli clears last step's flags and rolls fresh environmental
// events.
func injectStimuli(s *cat.State, rng *rand.Rand) {
	s.IsBeingPetted = rng.Float64() < 0.03
	s.IsPlayerCalling = rng.Float64() < 0.02
	s.NewToyAppeared = rng.Float64() < 0.01
	s.FoodBowlRefilled = rng.Float64() < 0.015
	s.SuddenMovement = rng.Float64() < 0.02
	s.LoudNoiseLevel = 0
	if rng.Float64() < 0.01 {
		s.LoudNoiseLevel = 0.4 + rng.Float64()*0.6
	}
	s.PlayerNearby = rng.Float64() < 0.3
	s.PlayerDistance = rng.Float64() * 40
}

// stepEnvironment advances hunger, energy, distances, and mood by one step
// given the chosen action.
func stepEnvironment(s *cat.State, result engine.Result, rng *rand.Rand) {
	s.Hunger += hungerPerStep
	s.Energy -= energyPerStep

	switch result.Action {
	case cat.ActionMoveToFood:
		s.DistanceToFood -= moveDistance
		if s.DistanceToFood <= 0 {
			s.Hunger -= foodReduction
			s.DistanceToFood = 5 + rng.Float64()*5
		}
	case cat.ActionMoveToToy:
		s.DistanceToToy -= moveDistance
		if s.DistanceToToy <= 0 {
			s.DistanceToToy = 5 + rng.Float64()*5
		}
	case cat.ActionSleep:
		s.Energy += sleepGain + energyPerStep
	case cat.ActionPlay:
		s.Energy -= 1.0
		s.Mood += 0.5
	}

	s.Mood += result.MoodChange
	// Mood drifts back toward baseline.
	s.Mood += (50 - s.Mood) * 0.01

	s.Hunger = clamp(s.Hunger, 0, cat.MaxGauge)
	s.Energy = clamp(s.Energy, 0, cat.MaxGauge)
	s.Mood = clamp(s.Mood, 0, cat.MaxGauge)
	s.DistanceToFood = clamp(s.DistanceToFood, 0, cat.MaxDistance)
	s.DistanceToToy = clamp(s.DistanceToToy, 0, cat.MaxDistance)
}

func printSummary(cats, steps int, stats engine.Stats, actions map[cat.Action]uint64, emotions map[emotion.Type]uint64) {
	total := uint64(cats) * uint64(steps)
	fmt.Printf("simulated %s decisions (%d cats × %s steps)\n",
		humanize.Comma(int64(total)), cats, humanize.Comma(int64(steps)))
	fmt.Printf("reactions triggered: %s  repetition overrides: %s\n\n",
		humanize.Comma(int64(stats.ReactionsTriggered)),
		humanize.Comma(int64(stats.RepetitionOverrides)))

	fmt.Println("actions:")
	for a := cat.Action(0); a < cat.NumActions; a++ {
		fmt.Printf("  %-14s %6.2f%%\n", a.Name(), pct(actions[a], total))
	}

	fmt.Println("\nemotions:")
	type ec struct {
		e emotion.Type
		n uint64
	}
	var sorted []ec
	for e, n := range emotions {
		sorted = append(sorted, ec{e, n})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].n > sorted[j].n })
	for _, x := range sorted {
		fmt.Printf("  %-14s %6.2f%%\n", x.e, pct(x.n, total))
	}
}

func pct(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
