// Package envelope implements C5: ADSR, exponential, and custom piecewise
// envelope shapes, per spec.md §4.5. Voices (C3) embed an Envelope to
// gate amplitude and modulate the filter.
package envelope

import "math"

// Shape selects the envelope's segment math.
type Shape int

const (
	ShapeADSR Shape = iota
	ShapeExponential
	ShapeCustom
)

// stage tracks which segment of the envelope is currently rendering.
type stage int

const (
	stageIdle stage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// floorDB is where an exponential ramp is considered to have reached
// silence; it never touches exact zero (spec.md §4.5), then snaps.
const floorDB = -90.0
const floorLinear = 0.0000316227766 // 10^(-90/20)

// Params configures an ADSR/exponential envelope. All times are seconds;
// Peak and Sustain are normalized [0,1].
type Params struct {
	AttackSec  float64
	DecaySec   float64
	Sustain    float64
	ReleaseSec float64
	Peak       float64
	Shape      Shape
	// Custom holds sorted (time, value) pairs for ShapeCustom, time in
	// seconds relative to trigger.
	Custom []Point
}

// Point is one knot of a custom piecewise envelope.
type Point struct {
	Time  float64
	Value float64
}

// Clamp enforces spec.md §4.5 invariants: times >= 0, Peak and Sustain in
// [0,1].
func (p *Params) Clamp() {
	if p.AttackSec < 0 {
		p.AttackSec = 0
	}
	if p.DecaySec < 0 {
		p.DecaySec = 0
	}
	if p.ReleaseSec < 0 {
		p.ReleaseSec = 0
	}
	p.Sustain = clamp01(p.Sustain)
	if p.Peak <= 0 {
		p.Peak = 1
	}
	if p.Peak > 1 {
		p.Peak = 1
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

// Envelope is a stateful per-voice generator. It is cheap enough to embed
// by value in a voice and render sample-by-sample on the audio thread
// without allocation.
type Envelope struct {
	params     Params
	sampleRate float64
	stage      stage
	value      float64 // current output, linear [0,1]
	stageTime  float64 // seconds elapsed in current stage
	releaseFrom float64 // value at the instant release began
	customIdx  int
}

// New constructs an Envelope bound to a sample rate.
func New(sampleRate int, params Params) *Envelope {
	params.Clamp()
	return &Envelope{params: params, sampleRate: float64(sampleRate)}
}

// SetParams replaces the envelope's shape parameters without resetting
// its current stage/value, matching C6's "updates never replace state"
// philosophy applied to modulation sources.
func (e *Envelope) SetParams(p Params) {
	p.Clamp()
	e.params = p
}

// Trigger starts (or restarts) the attack stage. The attack ramp starts
// at zero whatever the current value is, so retriggering a sounding
// envelope drops its output to the start of the ramp.
func (e *Envelope) Trigger() {
	e.stage = stageAttack
	e.stageTime = 0
	e.customIdx = 0
}

// TriggerRelease cancels any scheduled values and ramps to 0 over Release
// (spec.md §4.5): whatever the current value is becomes the release
// start point.
func (e *Envelope) TriggerRelease() {
	if e.stage == stageIdle {
		return
	}
	e.stage = stageRelease
	e.stageTime = 0
	e.releaseFrom = e.value
}

// Idle reports whether the envelope has fully decayed after release
// (gain below floorDB), meaning the owning voice can be reclaimed
// (spec.md §4.3).
func (e *Envelope) Idle() bool { return e.stage == stageIdle }

// Value returns the current linear output without advancing state.
func (e *Envelope) Value() float64 { return e.value }

// Advance renders n samples, returning only the final value; voices that
// need per-sample envelope values call Next in their own render loop
// instead.
func (e *Envelope) Advance(n int) float64 {
	for i := 0; i < n; i++ {
		e.Next()
	}
	return e.value
}

// Next advances the envelope by one sample and returns the new value.
func (e *Envelope) Next() float64 {
	dt := 1.0 / e.sampleRate
	switch e.params.Shape {
	case ShapeCustom:
		e.nextCustom(dt)
	case ShapeExponential:
		e.nextExponential(dt)
	default:
		e.nextADSR(dt)
	}
	return e.value
}

func (e *Envelope) nextADSR(dt float64) {
	p := &e.params
	switch e.stage {
	case stageIdle:
		e.value = 0
	case stageAttack:
		if p.AttackSec <= 0 {
			e.value = p.Peak
			e.stage = stageDecay
			e.stageTime = 0
			return
		}
		e.stageTime += dt
		e.value = p.Peak * clamp01(e.stageTime/p.AttackSec)
		if e.stageTime >= p.AttackSec {
			e.stage = stageDecay
			e.stageTime = 0
		}
	case stageDecay:
		if p.DecaySec <= 0 {
			e.value = p.Peak * p.Sustain
			e.stage = stageSustain
			e.stageTime = 0
			return
		}
		e.stageTime += dt
		frac := clamp01(e.stageTime / p.DecaySec)
		e.value = p.Peak + (p.Peak*p.Sustain-p.Peak)*frac
		if e.stageTime >= p.DecaySec {
			e.stage = stageSustain
			e.stageTime = 0
		}
	case stageSustain:
		e.value = p.Peak * p.Sustain
	case stageRelease:
		if p.ReleaseSec <= 0 {
			e.value = 0
			e.stage = stageIdle
			return
		}
		e.stageTime += dt
		frac := clamp01(e.stageTime / p.ReleaseSec)
		e.value = e.releaseFrom * (1 - frac)
		if e.stageTime >= p.ReleaseSec || e.value <= floorLinear {
			e.value = 0
			e.stage = stageIdle
		}
	}
}

// nextExponential renders attack/release as exponential curves; it never
// lets the value touch exact zero mid-ramp, targeting floorDB instead,
// then snapping once the floor is reached (spec.md §4.5).
func (e *Envelope) nextExponential(dt float64) {
	p := &e.params
	switch e.stage {
	case stageIdle:
		e.value = 0
	case stageAttack:
		if p.AttackSec <= 0 {
			e.value = p.Peak
			e.stage = stageDecay
			e.stageTime = 0
			return
		}
		e.stageTime += dt
		tau := p.AttackSec / 3.0 // ~95% by AttackSec
		e.value = p.Peak * (1 - math.Exp(-e.stageTime/tau))
		if e.stageTime >= p.AttackSec {
			e.value = p.Peak
			e.stage = stageDecay
			e.stageTime = 0
		}
	case stageDecay:
		if p.DecaySec <= 0 {
			e.value = p.Peak * p.Sustain
			e.stage = stageSustain
			e.stageTime = 0
			return
		}
		e.stageTime += dt
		tau := p.DecaySec / 3.0
		target := p.Peak * p.Sustain
		e.value = target + (p.Peak-target)*math.Exp(-e.stageTime/tau)
		if e.stageTime >= p.DecaySec {
			e.stage = stageSustain
			e.stageTime = 0
		}
	case stageSustain:
		e.value = p.Peak * p.Sustain
	case stageRelease:
		if p.ReleaseSec <= 0 {
			e.value = 0
			e.stage = stageIdle
			return
		}
		e.stageTime += dt
		tau := p.ReleaseSec / 3.0
		e.value = e.releaseFrom * math.Exp(-e.stageTime/tau)
		if e.value <= floorLinear {
			e.value = 0
			e.stage = stageIdle
		}
	}
}

func (e *Envelope) nextCustom(dt float64) {
	pts := e.params.Custom
	if len(pts) == 0 {
		e.value = 0
		e.stage = stageIdle
		return
	}
	if e.stage == stageIdle {
		e.value = 0
		return
	}
	if e.stage == stageRelease {
		// Release cancels scheduled points and ramps to 0 over Release.
		e.nextADSRReleaseOnly(dt)
		return
	}
	e.stageTime += dt
	for e.customIdx < len(pts)-1 && pts[e.customIdx+1].Time <= e.stageTime {
		e.customIdx++
	}
	if e.customIdx >= len(pts)-1 {
		e.value = pts[len(pts)-1].Value
		return
	}
	a, b := pts[e.customIdx], pts[e.customIdx+1]
	if b.Time <= a.Time {
		e.value = b.Value
		return
	}
	frac := clamp01((e.stageTime - a.Time) / (b.Time - a.Time))
	e.value = a.Value + (b.Value-a.Value)*frac
}

func (e *Envelope) nextADSRReleaseOnly(dt float64) {
	p := &e.params
	if p.ReleaseSec <= 0 {
		e.value = 0
		e.stage = stageIdle
		return
	}
	e.stageTime += dt
	frac := clamp01(e.stageTime / p.ReleaseSec)
	e.value = e.releaseFrom * (1 - frac)
	if e.stageTime >= p.ReleaseSec {
		e.value = 0
		e.stage = stageIdle
	}
}
