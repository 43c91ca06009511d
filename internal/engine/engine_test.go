package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/talgya/whisker/internal/cat"
	"github.com/talgya/whisker/internal/emotion"
	"github.com/talgya/whisker/internal/reaction"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(reaction.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func calmState() cat.State {
	return cat.State{
		CatID:  "test",
		Hunger: 50, Energy: 50, Mood: 50,
		DistanceToFood: 5, DistanceToToy: 5,
	}
}

func TestNew_NilTable(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil table")
	}
}

func TestDecide_Deterministic(t *testing.T) {
	run := func() []Result {
		eng := newTestEngine(t)
		rng := rand.New(rand.NewSource(7))
		var out []Result
		state := calmState()
		for i := 0; i < 50; i++ {
			state.Mood = float64(20 + i)
			state.FoodBowlRefilled = i%7 == 0
			r, err := eng.Decide("mochi", cat.Action(i%cat.NumActions), state, rng)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			out = append(out, r)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d diverged:\n  %+v\n  %+v", i, a[i], b[i])
		}
	}
}

func TestDecide_NoStimulusNeverReacts(t *testing.T) {
	eng := newTestEngine(t)
	rng := rand.New(rand.NewSource(1))

	state := calmState()
	for i := 0; i < 200; i++ {
		r, err := eng.Decide("quiet", cat.ActionIdle, state, rng)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if r.ReactionTriggered {
			t.Fatalf("reaction triggered with no active stimulus: %+v", r)
		}
		if !r.Action.Valid() {
			t.Fatalf("invalid action %d", r.Action)
		}
	}
}

func TestDecide_LoudNoiseScaredAlwaysFires(t *testing.T) {
	// Low mood, max arousal, full-level noise: the scared rule has trigger
	// probability 1.0, so every decision must take the reaction path.
	eng := newTestEngine(t)
	rng := rand.New(rand.NewSource(3))

	state := cat.State{
		CatID: "jumpy",
		Mood:  20, Hunger: 0, Energy: 100,
		DistanceToFood: 5, DistanceToToy: 5,
		LoudNoiseLevel: 1.0,
	}

	r, err := eng.Decide("jumpy", cat.ActionPlay, state, rng)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if r.Emotion != emotion.Scared {
		t.Fatalf("emotion = %q (arousal %.2f), want scared", r.Emotion, r.ArousalLevel)
	}
	if !r.ReactionTriggered {
		t.Fatal("reaction did not trigger at probability 1.0 and full intensity")
	}
	if r.Action != cat.ActionIdle {
		t.Errorf("action = %v, want idle (freeze)", r.Action)
	}
	if r.AnimationHint != "run_hide" {
		t.Errorf("animation hint = %q, want run_hide", r.AnimationHint)
	}
	if r.MoodChange != -30 {
		t.Errorf("mood change = %v, want -30", r.MoodChange)
	}

	// The recorded mood is post-delta and floor-clamped.
	hist := eng.Memory().History("jumpy", 1)
	if len(hist) != 1 || hist[0].Mood != 0 {
		t.Errorf("recorded history = %+v, want mood clamped to 0", hist)
	}
}

func TestDecide_RepetitionOverride(t *testing.T) {
	// Four recent trips to the bowl, then a refill that would force a fifth:
	// the override must break the streak.
	eng := newTestEngine(t)
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 4; i++ {
		eng.Memory().Record("fluffy", cat.ActionMoveToFood, 55)
	}

	// Demanding + food refill: trigger probability 1.0 and the only weighted
	// action is move_to_food.
	state := cat.State{
		CatID: "fluffy",
		Mood:  60, Hunger: 80, Energy: 60,
		DistanceToFood: 5, DistanceToToy: 5,
		FoodBowlRefilled: true,
	}

	r, err := eng.Decide("fluffy", cat.ActionIdle, state, rng)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if r.Emotion != emotion.Demanding {
		t.Fatalf("emotion = %q (arousal %.2f), want demanding", r.Emotion, r.ArousalLevel)
	}
	if !r.ReactionTriggered {
		t.Fatal("refill reaction did not trigger")
	}
	if !r.RepetitionOverride {
		t.Fatal("expected the repetition override to fire")
	}
	if r.Action == cat.ActionMoveToFood {
		t.Errorf("override kept the repeated action %v", r.Action)
	}
	if !r.Action.Valid() {
		t.Errorf("override produced invalid action %d", r.Action)
	}
	// Mood change still reflects the triggered reaction.
	if r.MoodChange != 20 {
		t.Errorf("mood change = %v, want 20", r.MoodChange)
	}
}

func TestDecide_ActivityFeedsClassification(t *testing.T) {
	// An all-active history raises arousal through the activity term.
	eng := newTestEngine(t)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < activityWindow; i++ {
		eng.Memory().Record("zoomer", cat.ActionPlay, 60)
	}

	state := calmState()
	state.CatID = "zoomer"
	r, err := eng.Decide("zoomer", cat.ActionIdle, state, rng)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if r.ActivityLevel != 1.0 {
		t.Errorf("activity level = %v, want 1.0", r.ActivityLevel)
	}
}

func TestDecide_InvalidInput(t *testing.T) {
	eng := newTestEngine(t)
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name      string
		catID     string
		base      cat.Action
		mutate    func(*cat.State)
		wantField string
	}{
		{"empty-cat-id", "", cat.ActionIdle, func(s *cat.State) {}, "cat_id"},
		{"base-out-of-range", "x", cat.Action(99), func(s *cat.State) {}, "base_action"},
		{"hunger-nan", "x", cat.ActionIdle, func(s *cat.State) { s.Hunger = math.NaN() }, "hunger"},
		{"energy-negative", "x", cat.ActionIdle, func(s *cat.State) { s.Energy = -1 }, "energy"},
		{"mood-over-gauge", "x", cat.ActionIdle, func(s *cat.State) { s.Mood = 101 }, "mood"},
		{"noise-over-one", "x", cat.ActionIdle, func(s *cat.State) { s.LoudNoiseLevel = 1.5 }, "loud_noise_level"},
		{"food-distance-inf", "x", cat.ActionIdle, func(s *cat.State) { s.DistanceToFood = math.Inf(1) }, "distance_to_food"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := calmState()
			tt.mutate(&state)
			_, err := eng.Decide(tt.catID, tt.base, state, rng)
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("error = %v, want InputError", err)
			}
			if ie.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ie.Field, tt.wantField)
			}
		})
	}

	// Rejected requests leave no trace.
	if n := eng.Memory().Size(); n != 0 {
		t.Errorf("memory tracks %d cats after invalid requests, want 0", n)
	}
	if s := eng.Stats(); s.Decisions != 0 {
		t.Errorf("decisions counter = %d after invalid requests, want 0", s.Decisions)
	}
}

func TestStats(t *testing.T) {
	eng := newTestEngine(t)
	rng := rand.New(rand.NewSource(9))

	state := calmState()
	for i := 0; i < 25; i++ {
		if _, err := eng.Decide("counter", cat.ActionIdle, state, rng); err != nil {
			t.Fatalf("Decide: %v", err)
		}
	}

	s := eng.Stats()
	if s.Decisions != 25 {
		t.Errorf("decisions = %d, want 25", s.Decisions)
	}
	if s.TrackedCats != 1 {
		t.Errorf("tracked cats = %d, want 1", s.TrackedCats)
	}
}
