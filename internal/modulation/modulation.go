// Package modulation implements note modulation as standalone functions:
// probability gating, add/subtract offsets, a free-running increment
// counter with wrap, and scale quantization. The sequencer and the
// engine do not call it; a note is modulated only where a caller applies
// these functions itself. This generalizes the teacher tracker's
// ModulateSettings/ApplyModulation (internal/modulation in
// schollz/collidertracker), which did the same thing for a single-track
// step sequencer; here it is a reusable value type any track's clip can
// carry (SPEC_FULL.md "Supplemented features").
package modulation

import "math/rand"

// Settings configures one track's note modulation. Seed semantics match
// the teacher: -1 disables randomization, 0 seeds from the caller-
// provided RNG as-is (time-seeded by the caller), 1+ reseeds the RNG
// deterministically for reproducible humanize.
type Settings struct {
	Seed        int
	RandomRange int // 0-128, additive random spread
	Sub         int
	Add         int
	Increment   int
	Wrap        int
	ScaleRoot   int // 0-11
	Scale       string
	Probability int // 0-100
}

// Default returns the identity modulation: always apply, no offsets, no
// scale constraint.
func Default() Settings {
	return Settings{Seed: -1, ScaleRoot: 0, Scale: "all", Probability: 100}
}

// Scale is a named set of semitone offsets within an octave.
type Scale struct {
	Name  string
	Notes []int
}

var scales = map[string]Scale{
	"all":        {"All Notes", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
	"major":      {"Major", []int{0, 2, 4, 5, 7, 9, 11}},
	"minor":      {"Minor", []int{0, 2, 3, 5, 7, 8, 10}},
	"dorian":     {"Dorian", []int{0, 2, 3, 5, 7, 9, 10}},
	"mixolydian": {"Mixolydian", []int{0, 2, 4, 5, 7, 9, 10}},
	"pentatonic": {"Pentatonic", []int{0, 2, 4, 7, 9}},
	"blues":      {"Blues", []int{0, 3, 5, 6, 7, 10}},
	"chromatic":  {"Chromatic", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
}

// ScaleNames lists the available scale keys for a host's parameter UI.
func ScaleNames() []string {
	names := make([]string, 0, len(scales))
	for k := range scales {
		names = append(names, k)
	}
	return names
}

// ApplyIncrement advances a note by the increment counter, wrapping the
// counter (not the resulting note) when it exceeds Wrap. Called before
// Apply so increment and randomize/scale compose predictably.
func ApplyIncrement(note, counter, increment, wrap int) int {
	if counter <= -1 || increment <= 0 {
		return note
	}
	c := counter
	if wrap > 0 && c >= wrap {
		c = c % wrap
	}
	return note + c
}

// Apply runs probability gating, random spread, add/sub, then scale
// quantization on a note value, using rng for both the probability roll
// and the random spread (mirrors the teacher's ApplyModulation pipeline
// order).
func Apply(note int, s Settings, rng *rand.Rand) int {
	if s.Probability < 100 {
		if rng.Intn(100)+1 > s.Probability {
			return note
		}
	}

	result := note
	if s.RandomRange > 0 && s.Seed >= 0 {
		if s.Seed > 0 {
			rng.Seed(int64(s.Seed))
		}
		result += rng.Intn(s.RandomRange + 1)
	}
	result -= s.Sub
	result += s.Add

	if s.Scale != "" && s.Scale != "all" {
		result = quantizeToScale(result, s.Scale, s.ScaleRoot)
	}
	return result
}

func quantizeToScale(note int, scaleName string, root int) int {
	scale, ok := scales[scaleName]
	if !ok {
		return note
	}
	if note < 0 {
		octaves := -note/12 + 1
		note += octaves * 12
	}
	octave := note / 12
	inOctave := note % 12
	transposed := (inOctave - root + 12) % 12

	closest := transposed
	minDist := 12
	for _, n := range scale.Notes {
		d := abs(transposed - n)
		if d < minDist {
			minDist = d
			closest = n
		}
	}
	final := (closest + root) % 12
	return octave*12 + final
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
