// Package eq implements C6 (one biquad filter section) and C7 (a stack of
// up to 24 bands with zero-latency and linear-phase modes), per spec.md
// §4.6–4.7. Coefficients follow the RBJ Audio EQ Cookbook; the difference
// equation is Direct Form I with explicit x1/x2/y1/y2 state, the same
// realization the example pack's game-audio filters use
// (lixenwraith/vi-fighter's filterBiquadLP/HP/BP), extended here to the
// full cookbook family and made stateful across parameter updates.
package eq

import (
	"math"

	"github.com/schollz/audioforge/internal/types"
)

// Band bounds (spec.md §3, §4.6).
const (
	MinFrequency = 10.0
	MaxFrequency = 48000.0
	MinGainDB    = -60.0
	MaxGainDB    = 60.0
	MinQ         = 0.01
	MaxQ         = 100.0
)

// BandParams is the value-object configuration of one EQ band. Setting
// Bandwidth instead of Q is exclusive per spec.md §3 ("the Q/bandwidth
// pair is exclusive: setting one clears the other"); BandwidthHz is only
// consulted if UseBandwidth is true.
type BandParams struct {
	ID           types.ID
	Type         types.EQBandType
	FrequencyHz  float64
	GainDB       float64
	Q            float64
	UseBandwidth bool
	BandwidthHz  float64
	SlopeDbOct   float64 // shelves only, 0.1-48
	Enabled      bool
}

// Band is one biquad section plus its persistent filter state. Parameter
// writes recompute coefficients but never touch x1/x2/y1/y2 (spec.md §4.6: "the
// internal z^-1/z^-2 state is preserved across updates").
type Band struct {
	params     BandParams
	sampleRate float64

	b0, b1, b2 float64
	a1, a2     float64 // a0 already normalized out

	x1, x2 float64
	y1, y2 float64

	// enableGain is the dedicated unity-or-zero downstream stage from
	// spec.md §4.6 so disabling a band never stops its coefficients from
	// updating (no zipper noise on re-enable).
	enableGain float64
}

// NewBand constructs a Band and computes its initial coefficients.
func NewBand(sampleRate float64, params BandParams) *Band {
	b := &Band{sampleRate: sampleRate}
	b.SetParams(params)
	return b
}

// SetParams clamps inputs per spec.md §4.6 and recomputes coefficients,
// preserving x1/x2/y1/y2.
func (b *Band) SetParams(p BandParams) {
	p.FrequencyHz = clamp(p.FrequencyHz, MinFrequency, MaxFrequency)
	nyquistCap := b.sampleRate * 0.5 * 0.99
	if p.FrequencyHz > nyquistCap {
		p.FrequencyHz = nyquistCap
	}
	p.GainDB = clamp(p.GainDB, MinGainDB, MaxGainDB)
	if p.UseBandwidth {
		if p.BandwidthHz <= 0 {
			p.BandwidthHz = 1
		}
		p.Q = p.FrequencyHz / p.BandwidthHz
	}
	p.Q = clamp(p.Q, MinQ, MaxQ)
	if p.SlopeDbOct <= 0 {
		p.SlopeDbOct = 12
	}
	b.params = p
	b.recompute()
	if p.Enabled {
		b.enableGain = 1
	} else {
		b.enableGain = 0
	}
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

// Params returns a copy of the band's current configuration.
func (b *Band) Params() BandParams { return b.params }

// recompute derives RBJ cookbook coefficients for the band's type.
func (b *Band) recompute() {
	p := b.params
	omega := 2 * math.Pi * p.FrequencyHz / b.sampleRate
	sn, cs := math.Sin(omega), math.Cos(omega)
	q := p.Q
	alpha := sn / (2 * q)
	A := math.Pow(10, p.GainDB/40)

	var b0, b1, b2, a0, a1, a2 float64

	switch p.Type {
	case types.EQLowpass:
		b0 = (1 - cs) / 2
		b1 = 1 - cs
		b2 = (1 - cs) / 2
		a0 = 1 + alpha
		a1 = -2 * cs
		a2 = 1 - alpha
	case types.EQHighpass:
		b0 = (1 + cs) / 2
		b1 = -(1 + cs)
		b2 = (1 + cs) / 2
		a0 = 1 + alpha
		a1 = -2 * cs
		a2 = 1 - alpha
	case types.EQBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cs
		a2 = 1 - alpha
	case types.EQNotch:
		b0 = 1
		b1 = -2 * cs
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cs
		a2 = 1 - alpha
	case types.EQAllpass:
		b0 = 1 - alpha
		b1 = -2 * cs
		b2 = 1 + alpha
		a0 = 1 + alpha
		a1 = -2 * cs
		a2 = 1 - alpha
	case types.EQPeaking:
		b0 = 1 + alpha*A
		b1 = -2 * cs
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cs
		a2 = 1 - alpha/A
	case types.EQLowShelf:
		slopeAlpha := sn / 2 * math.Sqrt((A+1/A)*(1/shelfSlopeQ(p.SlopeDbOct)-1)+2)
		sq2A := 2 * math.Sqrt(A) * slopeAlpha
		b0 = A * ((A + 1) - (A-1)*cs + sq2A)
		b1 = 2 * A * ((A - 1) - (A+1)*cs)
		b2 = A * ((A + 1) - (A-1)*cs - sq2A)
		a0 = (A + 1) + (A-1)*cs + sq2A
		a1 = -2 * ((A - 1) + (A+1)*cs)
		a2 = (A + 1) + (A-1)*cs - sq2A
	case types.EQHighShelf:
		slopeAlpha := sn / 2 * math.Sqrt((A+1/A)*(1/shelfSlopeQ(p.SlopeDbOct)-1)+2)
		sq2A := 2 * math.Sqrt(A) * slopeAlpha
		b0 = A * ((A + 1) + (A-1)*cs + sq2A)
		b1 = -2 * A * ((A - 1) + (A+1)*cs)
		b2 = A * ((A + 1) + (A-1)*cs - sq2A)
		a0 = (A + 1) - (A-1)*cs + sq2A
		a1 = 2 * ((A - 1) - (A+1)*cs)
		a2 = (A + 1) - (A-1)*cs - sq2A
	default:
		b0, a0 = 1, 1
	}

	b.b0, b.b1, b.b2 = b0/a0, b1/a0, b2/a0
	b.a1, b.a2 = a1/a0, a2/a0
}

// shelfSlopeQ maps a shelf's normalized slope (dB/oct, spec.md §4.6 "the
// conventional normalized-slope relation") to the RBJ cookbook's S
// parameter, where S=1 is the steepest monotonic shelf.
func shelfSlopeQ(slopeDbOct float64) float64 {
	s := slopeDbOct / 12.0
	if s <= 0 {
		s = 1
	}
	if s > 1 {
		s = 1
	}
	return s
}

// Process filters one sample through Direct Form I, then applies the
// enable/disable unity-or-zero gain stage downstream of the filter math
// (spec.md §4.6) so the filter keeps running even while "disabled".
func (b *Band) Process(x float64) float64 {
	y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2, b.x1 = b.x1, x
	b.y2, b.y1 = b.y1, y
	return x + (y-x)*b.enableGain
}

// ProcessBlock filters an in-place block.
func (b *Band) ProcessBlock(buf []float32) {
	for i, x := range buf {
		buf[i] = float32(b.Process(float64(x)))
	}
}

// MagnitudeDB returns the band's magnitude response at freqHz in dB,
// evaluated from the closed-form z-transform at e^(jw) — used both by
// property tests (spec.md §8 property 6/7) and by the linear-phase FIR
// synthesis in linearphase.go.
func (b *Band) MagnitudeDB(freqHz float64) float64 {
	w := 2 * math.Pi * freqHz / b.sampleRate
	re := complex(math.Cos(w), -math.Sin(w))
	z1 := re
	z2 := re * re
	num := complex(b.b0, 0) + complex(b.b1, 0)*z1 + complex(b.b2, 0)*z2
	den := complex(1, 0) + complex(b.a1, 0)*z1 + complex(b.a2, 0)*z2
	h := num / den
	mag := cmplxAbs(h)
	if mag <= 0 {
		return -300
	}
	return 20 * math.Log10(mag)
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// Reset zeroes the filter's delay line (used when a band is newly added
// mid-stream so it starts from silence rather than stale state).
func (b *Band) Reset() {
	b.x1, b.x2, b.y1, b.y2 = 0, 0, 0, 0
}
