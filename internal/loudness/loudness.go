// Package loudness implements C12: ITU-R BS.1770-4 / EBU R128 loudness
// metering. This replaces the approximation flagged in SPEC_FULL.md's
// open questions — the K-weighting filter is two proper cascaded
// biquads (not a frequency-domain approximation), and integrated-LUFS
// gating operates on linear mean-square power the whole way through,
// converting to LU only at the threshold comparison, rather than
// gating on already-log-domain values.
package loudness

import (
	"math"

	"github.com/schollz/audioforge/internal/eq"
	"github.com/schollz/audioforge/internal/types"
)

const (
	momentaryWindowMS  = 400
	shortTermWindowS   = 3.0
	absoluteGateLUFS   = -70.0
	relativeGateOffset = -10.0
)

// kWeighting builds the two-stage BS.1770 pre-filter: a high-pass around
// 38Hz (modeling the head's acoustic shading) cascaded with a high-shelf
// around 2kHz +4dB (modeling head diffraction), reusing eq.Band's RBJ
// biquad rather than a second filter implementation.
type kWeighting struct {
	highPass *eq.Band
	shelf    *eq.Band
}

func newKWeighting(sampleRate float64) *kWeighting {
	hp := eq.NewBand(sampleRate, eq.BandParams{Type: types.EQHighpass, FrequencyHz: 38, Q: 0.5, Enabled: true})
	shelf := eq.NewBand(sampleRate, eq.BandParams{Type: types.EQHighShelf, FrequencyHz: 1500, GainDB: 4, Q: 0.707, Enabled: true})
	return &kWeighting{highPass: hp, shelf: shelf}
}

func (k *kWeighting) process(x float64) float64 {
	return k.shelf.Process(k.highPass.Process(x))
}

// Meter is C12, one instance per bus that wants loudness metering
// (spec.md: the master bus hosts one via its LUFS meter tap).
type Meter struct {
	sampleRate float64
	kL, kR     *kWeighting

	blockMS float64

	// gated-block history of mean-square power for integrated LUFS.
	blockPower []float64

	momentaryPower []float64 // ring of recent block power, enough for 400ms
	shortTermPower []float64 // ring of recent block power, enough for 3s

	peakDB     float64
	truePeakDB float64
}

func NewMeter(sampleRate float64) *Meter {
	return &Meter{
		sampleRate: sampleRate,
		kL:         newKWeighting(sampleRate),
		kR:         newKWeighting(sampleRate),
		peakDB:     -math.Inf(1),
		truePeakDB: -math.Inf(1),
	}
}

// ProcessBlock K-weights one stereo block, adds its mean-square power to
// the momentary, short-term and integrated histories, and updates the
// peak readings.
func (m *Meter) ProcessBlock(left, right []float32) {
	n := len(left)
	if n == 0 {
		return
	}
	durationS := float64(n) / m.sampleRate

	var sumSq float64
	for i := 0; i < n; i++ {
		l := m.kL.process(float64(left[i]))
		r := m.kR.process(float64(right[i]))
		sumSq += l*l + r*r

		rawAbsL := math.Abs(float64(left[i]))
		rawAbsR := math.Abs(float64(right[i]))
		if rawAbsL > m.peakLinear() || rawAbsR > m.peakLinear() {
			m.peakDB = linearToDB(math.Max(rawAbsL, rawAbsR))
		}
	}
	meanSq := sumSq / float64(n) / 2 // average over 2 channels, weight 1.0 each

	m.truePeak(left, right)

	// blockPower accumulates for the session's entire lifetime: BS.1770
	// integrated loudness gates over the whole measured signal, not a
	// trailing window (spec.md §9 open question 2 — a fixed-size cap here
	// would silently drop early material from the integrated reading on
	// any render longer than the cap).
	m.blockPower = append(m.blockPower, meanSq)

	m.momentaryPower = appendWindowed(m.momentaryPower, meanSq, durationS, momentaryWindowMS/1000)
	m.shortTermPower = appendWindowed(m.shortTermPower, meanSq, durationS, shortTermWindowS)
	m.blockMS = durationS * 1000
}

func (m *Meter) peakLinear() float64 {
	if math.IsInf(m.peakDB, -1) {
		return 0
	}
	return math.Pow(10, m.peakDB/20)
}

// truePeak estimates inter-sample peak via 4x oversampling using simple
// linear interpolation midpoints (spec.md C12 "true-peak oversampled x4
// estimate") — adequate for metering, not a full polyphase reconstruction.
func (m *Meter) truePeak(left, right []float32) {
	check := func(prev, cur float32) {
		for k := 1; k < 4; k++ {
			frac := float32(k) / 4
			interp := prev + frac*(cur-prev)
			v := math.Abs(float64(interp))
			if v > 0 {
				db := linearToDB(v)
				if db > m.truePeakDB {
					m.truePeakDB = db
				}
			}
		}
	}
	var prevL, prevR float32
	for i := range left {
		check(prevL, left[i])
		check(prevR, right[i])
		prevL, prevR = left[i], right[i]
	}
}

func appendWindowed(ring []float64, v float64, blockDurationS, windowS float64) []float64 {
	ring = append(ring, v)
	maxLen := int(math.Ceil(windowS/blockDurationS)) + 1
	if len(ring) > maxLen {
		ring = ring[len(ring)-maxLen:]
	}
	return ring
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// lufsFromMeanSquare applies the BS.1770 offset to a mean-square power
// value. Channel weights are both 1.0 (stereo L/R only, per spec.md).
func lufsFromMeanSquare(meanSq float64) float64 {
	if meanSq <= 0 {
		return math.Inf(-1)
	}
	return -0.691 + 10*math.Log10(meanSq)
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// Momentary returns the 400ms-window LUFS.
func (m *Meter) Momentary() float64 { return lufsFromMeanSquare(meanOf(m.momentaryPower)) }

// ShortTerm returns the 3s-window LUFS.
func (m *Meter) ShortTerm() float64 { return lufsFromMeanSquare(meanOf(m.shortTermPower)) }

// Integrated applies BS.1770's two-stage gating in the linear power
// domain: first drop blocks below the -70 LUFS absolute gate, then
// compute the ungated mean of what remains, drop blocks more than 10 LU
// below that relative gate, and report the mean of the final set.
func (m *Meter) Integrated() float64 {
	if len(m.blockPower) == 0 {
		return math.Inf(-1)
	}
	var absGated []float64
	for _, p := range m.blockPower {
		if lufsFromMeanSquare(p) >= absoluteGateLUFS {
			absGated = append(absGated, p)
		}
	}
	if len(absGated) == 0 {
		return math.Inf(-1)
	}
	ungatedMeanLUFS := lufsFromMeanSquare(meanOf(absGated))
	relativeThreshold := ungatedMeanLUFS + relativeGateOffset

	var relGated []float64
	for _, p := range absGated {
		if lufsFromMeanSquare(p) >= relativeThreshold {
			relGated = append(relGated, p)
		}
	}
	if len(relGated) == 0 {
		return ungatedMeanLUFS
	}
	return lufsFromMeanSquare(meanOf(relGated))
}

func (m *Meter) PeakDB() float64     { return m.peakDB }
func (m *Meter) TruePeakDB() float64 { return m.truePeakDB }

func (m *Meter) Reset() {
	m.blockPower = nil
	m.momentaryPower = nil
	m.shortTermPower = nil
	m.peakDB = math.Inf(1) * -1
	m.truePeakDB = math.Inf(1) * -1
}
