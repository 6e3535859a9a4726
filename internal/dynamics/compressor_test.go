package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBelowThresholdNoReduction(t *testing.T) {
	c := New(48000)
	c.SetParams(Params{ThresholdDB: -6, Ratio: 4, AttackMS: 1, ReleaseMS: 50})

	buf := make([]float32, 2000)
	for i := range buf {
		buf[i] = 0.01 // well below -6dB
	}
	c.ProcessBlock(buf, nil)
	assert.InDelta(t, 0, c.GainReductionDB(), 0.5)
}

func TestAboveThresholdReducesGain(t *testing.T) {
	c := New(48000)
	c.SetParams(Params{ThresholdDB: -12, Ratio: 4, AttackMS: 1, ReleaseMS: 50})

	buf := make([]float32, 5000)
	for i := range buf {
		buf[i] = 0.9
	}
	c.ProcessBlock(buf, nil)
	assert.Less(t, c.GainReductionDB(), -0.1)
}

func TestRatioOneIsTransparent(t *testing.T) {
	c := New(48000)
	c.SetParams(Params{ThresholdDB: -20, Ratio: 1, AttackMS: 1, ReleaseMS: 10})

	buf := []float32{0.5, 0.5, 0.5, 0.5}
	orig := append([]float32(nil), buf...)
	c.ProcessBlock(buf, nil)
	for i := range buf {
		assert.InDelta(t, orig[i], buf[i], 1e-3)
	}
}

func TestSidechainUsesExternalSource(t *testing.T) {
	c := New(48000)
	c.SetSidechainEnabled(true)
	c.SetParams(Params{ThresholdDB: -12, Ratio: 8, AttackMS: 1, ReleaseMS: 20})

	main := make([]float32, 3000)
	sc := make([]float32, 3000)
	for i := range main {
		main[i] = 0.1 // quiet main signal
		sc[i] = 0.99  // loud sidechain key
	}
	c.ProcessBlock(main, sc)
	assert.Less(t, c.GainReductionDB(), -1.0)
}

func TestGainReductionNeverPositive(t *testing.T) {
	c := New(48000)
	c.SetParams(Params{ThresholdDB: -6, Ratio: 10, AttackMS: 0.1, ReleaseMS: 5})
	buf := make([]float32, 4000)
	for i := range buf {
		buf[i] = 0.8
	}
	c.ProcessBlock(buf, nil)
	assert.LessOrEqual(t, c.GainReductionDB(), 0.0)
}
