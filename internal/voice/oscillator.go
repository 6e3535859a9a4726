// Package voice implements C3: the polyphonic subtractive synth voice
// and its fixed-capacity pool with voice stealing (spec.md §4.3).
package voice

import (
	"math"

	"github.com/schollz/audioforge/internal/types"
)

// Oscillator is a phase-accumulator waveform generator with polyBLEP
// anti-aliasing on sawtooth and square, matching spec.md §4.3. Its shape
// is grounded on the example pack's tracker oscillator
// (oisee/abytetracker's phase-accumulator Oscillator), generalized here
// to band-limit the discontinuous waveforms.
type Oscillator struct {
	Waveform   types.Waveform
	SampleRate float64
	Phase      float64 // [0,1)
	Frequency  float64
	PulseWidth float64 // 0-1, pulse only
	DetuneCts  float64
}

// NewOscillator constructs an Oscillator bound to a sample rate.
func NewOscillator(sampleRate float64) *Oscillator {
	return &Oscillator{SampleRate: sampleRate, PulseWidth: 0.5}
}

// SetFrequency sets the oscillator's base frequency in Hz, clamped to a
// minimum of 20 Hz per spec.md §4.3 ("invalid frequency <= 0 is clamped
// to 20 Hz").
func (o *Oscillator) SetFrequency(hz float64) {
	if hz <= 0 {
		hz = 20
	}
	o.Frequency = hz
}

// EffectiveFrequency applies cents detune: f = f0 * 2^(cents/1200)
// (spec.md §4.3).
func (o *Oscillator) EffectiveFrequency() float64 {
	return o.Frequency * math.Pow(2, o.DetuneCts/1200)
}

// ResetPhase zeroes the phase accumulator; note retrigger is
// phase-continuous unless the caller explicitly resets it (spec.md
// §4.3).
func (o *Oscillator) ResetPhase() { o.Phase = 0 }

// Next advances the phase by one sample and returns the waveform value
// in [-1, 1].
func (o *Oscillator) Next() float64 {
	freq := o.EffectiveFrequency()
	if freq <= 0 {
		freq = 20
	}
	inc := freq / o.SampleRate
	phase := o.Phase
	o.Phase += inc
	if o.Phase >= 1 {
		o.Phase -= 1
	}

	switch o.Waveform {
	case types.WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case types.WaveTriangle:
		return triangle(phase)
	case types.WaveSquare:
		v := square(phase, 0.5)
		v -= polyBLEP(phase, inc)
		v += polyBLEP(math.Mod(phase+0.5, 1), inc)
		return v
	case types.WavePulse:
		v := square(phase, o.PulseWidth)
		v -= polyBLEP(phase, inc)
		v += polyBLEP(math.Mod(phase+(1-o.PulseWidth), 1), inc)
		return v
	case types.WaveSawtooth:
		v := 2*phase - 1
		v -= polyBLEP(phase, inc)
		return v
	default:
		return 0
	}
}

func triangle(phase float64) float64 {
	if phase < 0.5 {
		return 4*phase - 1
	}
	return 3 - 4*phase
}

func square(phase, duty float64) float64 {
	if phase < duty {
		return 1
	}
	return -1
}

// polyBLEP returns the band-limited step correction for a discontinuity
// located at phase=0, per the standard polyBLEP formula (Valimaki &
// Huovilainen). inc is the phase increment per sample (freq/sampleRate).
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
