// Package dynamics implements C8: a feed-forward compressor with
// peak/RMS detection, soft knee, auto or manual makeup gain, and
// optional external sidechain input. The envelope-follower shape
// (separate attack/release coefficients computed from a time constant)
// mirrors the attack/decay/release math in internal/envelope, adapted
// here for gain reduction instead of amplitude.
package dynamics

import "math"

// Detector selects the level-detection method feeding the gain computer.
type Detector int

const (
	DetectorPeak Detector = iota
	DetectorRMS
)

// Params configures a Compressor (spec.md C8).
type Params struct {
	ThresholdDB float64
	Ratio       float64 // >=1, 1 = no compression
	KneeDB      float64 // soft-knee width, 0 = hard knee
	AttackMS    float64
	ReleaseMS   float64
	MakeupDB    float64
	AutoMakeup  bool
	Detector    Detector
}

func (p *Params) Clamp() {
	if p.Ratio < 1 {
		p.Ratio = 1
	}
	if p.KneeDB < 0 {
		p.KneeDB = 0
	}
	if p.AttackMS < 0.01 {
		p.AttackMS = 0.01
	}
	if p.ReleaseMS < 1 {
		p.ReleaseMS = 1
	}
}

// Compressor is C8, one instance per track strip (its compressor stage).
type Compressor struct {
	sampleRate float64
	params     Params

	envelope   float64 // current detected level, linear
	rmsSquared float64
	gainReduction float64 // last computed reduction, dB, for metering

	sidechainEnabled bool
}

func New(sampleRate float64) *Compressor {
	return &Compressor{
		sampleRate: sampleRate,
		params:     Params{ThresholdDB: 0, Ratio: 1, AttackMS: 10, ReleaseMS: 100},
	}
}

func (c *Compressor) SetParams(p Params) {
	p.Clamp()
	c.params = p
}

func (c *Compressor) Params() Params { return c.params }

// GainReductionDB reports the most recently applied reduction, for
// metering (always <= 0).
func (c *Compressor) GainReductionDB() float64 { return c.gainReduction }

func (c *Compressor) SetSidechainEnabled(on bool) { c.sidechainEnabled = on }

// coeff converts a time constant in ms to a one-pole smoothing
// coefficient for this sample rate (standard RC envelope-follower
// formula, same shape as the exponential branch of internal/envelope).
func (c *Compressor) coeff(ms float64) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (ms / 1000 * c.sampleRate))
}

// ProcessBlock applies compression to main in place. If sidechain is
// non-nil and sidechainEnabled, the detector reads sidechain's level
// instead of main's (spec.md C8 "sidechain input").
func (c *Compressor) ProcessBlock(main []float32, sidechain []float32) {
	detectSrc := main
	if c.sidechainEnabled && sidechain != nil && len(sidechain) == len(main) {
		detectSrc = sidechain
	}

	attackCoeff := c.coeff(c.params.AttackMS)
	releaseCoeff := c.coeff(c.params.ReleaseMS)

	makeup := c.params.MakeupDB
	if c.params.AutoMakeup {
		makeup = c.autoMakeupDB()
	}
	makeupLin := math.Pow(10, makeup/20)

	var lastReductionDB float64
	for i := range main {
		level := c.detect(detectSrc[i])

		targetGainDB := c.gainComputer(level)
		targetReductionDB := targetGainDB

		if targetReductionDB < c.gainReduction {
			c.gainReduction += (targetReductionDB - c.gainReduction) * (1 - attackCoeff)
		} else {
			c.gainReduction += (targetReductionDB - c.gainReduction) * (1 - releaseCoeff)
		}
		lastReductionDB = c.gainReduction

		gainLin := math.Pow(10, c.gainReduction/20)
		main[i] = float32(float64(main[i]) * gainLin * makeupLin)
	}
	c.gainReduction = lastReductionDB
}

// detect updates and returns the current detected level in dBFS.
func (c *Compressor) detect(sample float32) float64 {
	abs := math.Abs(float64(sample))
	switch c.params.Detector {
	case DetectorRMS:
		const rmsCoeff = 0.01 // fast RMS integration window
		c.rmsSquared += (abs*abs - c.rmsSquared) * rmsCoeff
		level := math.Sqrt(c.rmsSquared)
		return linearToDB(level)
	default:
		if abs > c.envelope {
			c.envelope = abs
		} else {
			c.envelope *= 0.999
		}
		return linearToDB(c.envelope)
	}
}

// gainComputer returns the target gain reduction in dB for an input
// level in dBFS, implementing a soft-knee ratio curve (standard
// two-segment quadratic knee, as in most production compressors).
func (c *Compressor) gainComputer(levelDB float64) float64 {
	t := c.params.ThresholdDB
	r := c.params.Ratio
	k := c.params.KneeDB

	overshoot := levelDB - t
	if k > 0 && overshoot > -k/2 && overshoot < k/2 {
		x := overshoot + k/2
		compressed := t + overshoot + (1/r-1)*(x*x)/(2*k)
		return compressed - levelDB
	}
	if overshoot <= -k/2 {
		return 0
	}
	compressed := t + overshoot/r
	return compressed - levelDB
}

// autoMakeupDB estimates makeup gain as half the reduction that would
// occur at the threshold pushed 10dB over, a common heuristic matching
// the "automatic" mode of hardware-style compressors.
func (c *Compressor) autoMakeupDB() float64 {
	probe := c.params.ThresholdDB + 10
	reduction := c.gainComputer(probe)
	return -reduction / 2
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return -120
	}
	return 20 * math.Log10(v)
}

func (c *Compressor) Reset() {
	c.envelope = 0
	c.rmsSquared = 0
	c.gainReduction = 0
}
