// Package emotion classifies a cat's observed gauges into a discrete
// emotional state. Classification is a pure function: threshold profiles are
// evaluated in a fixed priority order and the first full match wins.
package emotion

import (
	"fmt"
)

// Type is one of the 14 discrete emotions.
type Type string

const (
	// Negative valence.
	Scared  Type = "scared"
	Anxious Type = "anxious"
	Grumpy  Type = "grumpy"
	Annoyed Type = "annoyed"

	// Neutral valence.
	Hungry    Type = "hungry"
	Demanding Type = "demanding"
	Sleepy    Type = "sleepy"
	Curious   Type = "curious"

	// Positive valence.
	Relaxed      Type = "relaxed"
	Content      Type = "content"
	Affectionate Type = "affectionate"
	Playful      Type = "playful"
	Excited      Type = "excited"
	Happy        Type = "happy"
)

// Intensity buckets arousal magnitude.
type Intensity string

const (
	Weak     Intensity = "weak"
	Moderate Intensity = "moderate"
	Strong   Intensity = "strong"
)

// Intensity cutoffs on arousal.
const (
	moderateCutoff = 0.33
	strongCutoff   = 0.66
)

// State is the derived emotional state for one decision. Not persisted.
type State struct {
	Emotion   Type      `json:"emotion"`
	Intensity Intensity `json:"intensity"`
	Arousal   float64   `json:"arousal"` // 0..1
	Valence   float64   `json:"valence"` // -1..1
}

// Arousal weight factors. Hunger deficit and energy dominate; recent activity
// and ambient noise nudge.
const (
	hungerWeight   = 0.3
	energyWeight   = 0.4
	activityWeight = 0.2
	noiseWeight    = 0.1
)

// profile is a threshold window over the classification inputs. A profile
// matches when every gauge falls inside its window.
type profile struct {
	moodMin, moodMax       float64
	hungerMin, hungerMax   float64
	energyMin, energyMax   float64
	arousalMin, arousalMax float64
}

// open returns a profile with fully open bounds; entries narrow only the
// gauges they care about.
func open() profile {
	return profile{
		moodMax:    100,
		hungerMax:  100,
		energyMax:  100,
		arousalMax: 1,
	}
}

func (p profile) matches(mood, hunger, energy, arousal float64) bool {
	return mood >= p.moodMin && mood <= p.moodMax &&
		hunger >= p.hungerMin && hunger <= p.hungerMax &&
		energy >= p.energyMin && energy <= p.energyMax &&
		arousal >= p.arousalMin && arousal <= p.arousalMax
}

type rule struct {
	emotion Type
	profile profile
}

// priority is the fixed tie-break order: distress must not be masked by
// contentment, so negative emotions are checked first, then neutral, then
// positive. Within a band, the narrower profile comes first.
var priority = buildPriority()

func buildPriority() []rule {
	r := func(e Type, mod func(*profile)) rule {
		p := open()
		mod(&p)
		return rule{emotion: e, profile: p}
	}
	return []rule{
		r(Scared, func(p *profile) { p.moodMax = 30; p.arousalMin = 0.7 }),
		r(Anxious, func(p *profile) { p.moodMax = 40; p.arousalMin = 0.5 }),
		r(Grumpy, func(p *profile) { p.moodMax = 35; p.hungerMin = 60; p.energyMax = 40 }),
		r(Annoyed, func(p *profile) { p.moodMax = 45; p.arousalMin = 0.4 }),
		r(Hungry, func(p *profile) { p.hungerMin = 70; p.moodMax = 50 }),
		r(Demanding, func(p *profile) { p.hungerMin = 75; p.energyMin = 40 }),
		r(Sleepy, func(p *profile) { p.energyMax = 30; p.moodMin = 30 }),
		r(Relaxed, func(p *profile) { p.moodMin = 60; p.energyMin = 40; p.arousalMax = 0.3 }),
		r(Content, func(p *profile) { p.moodMin = 55; p.arousalMax = 0.4 }),
		r(Affectionate, func(p *profile) { p.moodMin = 70; p.arousalMax = 0.5 }),
		r(Curious, func(p *profile) { p.moodMin = 50; p.arousalMin = 0.4; p.arousalMax = 0.7 }),
		r(Playful, func(p *profile) { p.moodMin = 65; p.energyMin = 50; p.arousalMin = 0.5 }),
		r(Excited, func(p *profile) { p.moodMin = 75; p.arousalMin = 0.7 }),
		r(Happy, func(p *profile) { p.moodMin = 70; p.energyMin = 45 }),
	}
}

// ValidateProfiles checks that every threshold window is satisfiable.
// Called once at startup; a degenerate profile is a configuration error.
func ValidateProfiles() error {
	for _, ru := range priority {
		p := ru.profile
		if p.moodMin > p.moodMax || p.hungerMin > p.hungerMax ||
			p.energyMin > p.energyMax || p.arousalMin > p.arousalMax {
			return fmt.Errorf("emotion %q: threshold window can never match", ru.emotion)
		}
	}
	return nil
}

// Arousal combines hunger deficit, energy, recent activity, and noise into a
// 0..1 activation level.
func Arousal(hunger, energy, activity, noise float64) float64 {
	a := (100-hunger)/100*hungerWeight +
		energy/100*energyWeight +
		activity*activityWeight +
		noise*noiseWeight
	return clamp01(a)
}

// Valence rescales mood linearly from 0..100 to -1..1.
func Valence(mood float64) float64 {
	return (mood/100 - 0.5) * 2
}

// Classify maps the current gauges to an emotional state. activity is the
// cat's recent activity level (0..1) and noise the ambient noise level (0..1).
// Never fails: when no profile matches, the cat is content.
func Classify(mood, hunger, energy, activity, noise float64) State {
	arousal := Arousal(hunger, energy, activity, noise)

	selected := Content
	for _, ru := range priority {
		if ru.profile.matches(mood, hunger, energy, arousal) {
			selected = ru.emotion
			break
		}
	}

	return State{
		Emotion:   selected,
		Intensity: bucketIntensity(arousal),
		Arousal:   arousal,
		Valence:   Valence(mood),
	}
}

func bucketIntensity(arousal float64) Intensity {
	switch {
	case arousal >= strongCutoff:
		return Strong
	case arousal >= moderateCutoff:
		return Moderate
	default:
		return Weak
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
