// Package timebase implements C1: the mapping between samples, beats, and
// bars:beats:steps for a session's transport, per spec.md §4.1.
package timebase

import "math"

// TimeBase owns sample rate, BPM, and the monotone (during play) sample
// position. BPM changes mid-play preserve position in beats, not samples
// (spec.md §4.1), so position is the ultimate source of truth and the
// sample counter is a derived, recomputed quantity.
type TimeBase struct {
	sampleRate    int
	bpm           float64
	positionBeats float64
	stepsPerBeat  int
	beatsPerBar   int
}

const (
	MinBPM = 20.0
	MaxBPM = 300.0
)

// New constructs a TimeBase. bpm is clamped to [MinBPM, MaxBPM].
func New(sampleRate int, bpm float64, stepsPerBeat, beatsPerBar int) *TimeBase {
	if stepsPerBeat <= 0 {
		stepsPerBeat = 4
	}
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}
	return &TimeBase{
		sampleRate:   sampleRate,
		bpm:          clampBPM(bpm),
		stepsPerBeat: stepsPerBeat,
		beatsPerBar:  beatsPerBar,
	}
}

func clampBPM(bpm float64) float64 {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// SampleRate returns the immutable session sample rate.
func (t *TimeBase) SampleRate() int { return t.sampleRate }

// BPM returns the current tempo.
func (t *TimeBase) BPM() float64 { return t.bpm }

// SetBPM updates tempo, clamping to [20, 300] (spec.md §9 open question 5
// picks this range over the source's inconsistent [60,200]/[20,300]).
// Position is preserved in beats; the caller must re-derive any cached
// sample-domain schedule from PositionBeats afterward.
func (t *TimeBase) SetBPM(bpm float64) {
	t.bpm = clampBPM(bpm)
}

// PositionBeats returns the current transport position in beats.
func (t *TimeBase) PositionBeats() float64 { return t.positionBeats }

// PositionSamples returns the current transport position in samples,
// derived from PositionBeats (never stored independently).
func (t *TimeBase) PositionSamples() int64 {
	return t.BeatsToSamples(t.positionBeats)
}

// Seek sets the transport position directly, in beats. Legal in both the
// Stopped and Playing states (spec.md §4.2).
func (t *TimeBase) Seek(beats float64) {
	if beats < 0 {
		beats = 0
	}
	t.positionBeats = beats
}

// AdvanceSamples moves the transport forward by n samples, expressed in
// the beat domain so repeated small advances don't accumulate rounding
// error beyond the contract in spec.md §8 property 1.
func (t *TimeBase) AdvanceSamples(n int) {
	t.positionBeats += t.SamplesToBeats(n)
}

// BeatsToSamples implements spec.md §4.1's contract:
// beats_to_samples(b) = round(b * 60 * sr / bpm), using banker's
// rounding (round-half-to-even) to keep long-run drift below 0.5 sample.
func (t *TimeBase) BeatsToSamples(beats float64) int64 {
	return int64(roundHalfEven(beats * 60.0 * float64(t.sampleRate) / t.bpm))
}

// SamplesToBeats is the inverse mapping.
func (t *TimeBase) SamplesToBeats(n int) float64 {
	return float64(n) * t.bpm / (60.0 * float64(t.sampleRate))
}

// StepBeats returns the duration of one step (1/stepsPerBeat of a beat).
func (t *TimeBase) StepBeats() float64 {
	return 1.0 / float64(t.stepsPerBeat)
}

// BarBeats returns the duration of one bar in beats.
func (t *TimeBase) BarBeats() float64 {
	return float64(t.beatsPerBar)
}

func (t *TimeBase) StepsPerBeat() int { return t.stepsPerBeat }
func (t *TimeBase) BeatsPerBar() int  { return t.beatsPerBar }

// SnapInterval is a derived quantity used by hosts to quantize UI edits;
// None means no snapping.
type SnapInterval int

const (
	SnapNone SnapInterval = iota
	SnapStep
	SnapBeat
	SnapBar
)

// SnapBeats rounds beats down to the nearest interval boundary.
func (t *TimeBase) SnapBeats(beats float64, snap SnapInterval) float64 {
	var unit float64
	switch snap {
	case SnapStep:
		unit = t.StepBeats()
	case SnapBeat:
		unit = 1.0
	case SnapBar:
		unit = t.BarBeats()
	default:
		return beats
	}
	return math.Floor(beats/unit) * unit
}

// roundHalfEven implements banker's rounding for float64 -> nearest
// integer, used so repeated beats<->samples conversions don't bias drift
// in one direction (spec.md §4.1, §8 property 1).
func roundHalfEven(x float64) float64 {
	floor := math.Floor(x)
	diff := x - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		// exactly halfway: round to even
		if math.Mod(floor, 2) == 0 {
			return floor
		}
		return floor + 1
	}
}
