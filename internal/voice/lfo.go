package voice

import "math"

// LFOTarget selects what a free-running or tempo-synced LFO modulates
// (spec.md §4.3).
type LFOTarget int

const (
	LFOTargetPitch LFOTarget = iota
	LFOTargetFilterCutoff
	LFOTargetAmp
)

// LFO is a free-running or tempo-synced low-frequency oscillator. When
// synced, Phase advances in beats rather than seconds so it stays in
// lockstep with the transport even across BPM changes (spec.md §4.3).
type LFO struct {
	SampleRate float64
	RateHz     float64
	Synced     bool
	RateBeats  float64 // period in beats, used when Synced
	Depth      float64
	Target     LFOTarget
	Waveform   waveformLFO
	phase      float64 // [0,1)
}

type waveformLFO int

const (
	LFOSine waveformLFO = iota
	LFOTriangle
	LFOSquare
	LFOSawtooth
)

// NewLFO constructs a free-running sine LFO.
func NewLFO(sampleRate float64) *LFO {
	return &LFO{SampleRate: sampleRate, RateHz: 1, Depth: 0, Waveform: LFOSine}
}

// Next advances the LFO by one sample (free-running mode) and returns its
// bipolar [-1,1] output scaled by Depth.
func (l *LFO) Next() float64 {
	inc := l.RateHz / l.SampleRate
	return l.advance(inc)
}

// NextSynced advances the LFO using beat-domain phase (tempo-synced
// mode), given the beats elapsed for one sample at the current BPM.
func (l *LFO) NextSynced(beatsPerSample float64) float64 {
	if l.RateBeats <= 0 {
		l.RateBeats = 1
	}
	inc := beatsPerSample / l.RateBeats
	return l.advance(inc)
}

func (l *LFO) advance(inc float64) float64 {
	l.phase += inc
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
	var v float64
	switch l.Waveform {
	case LFOTriangle:
		v = triangle(l.phase)
	case LFOSquare:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case LFOSawtooth:
		v = 2*l.phase - 1
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}
	return v * l.Depth
}

// Reset zeroes phase, used on note-on when the voice wants a consistent
// LFO starting point.
func (l *LFO) Reset() { l.phase = 0 }
