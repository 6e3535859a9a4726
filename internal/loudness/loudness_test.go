package loudness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func silence(n int) []float32 { return make([]float32, n) }

// fullScale returns a full-scale 1kHz sine at 48kHz; a constant input
// would be removed by K-weighting's high-pass and read as near silence.
func fullScale(n int) []float32 {
	b := make([]float32, n)
	for i := range b {
		b[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / 48000))
	}
	return b
}

func TestSilenceIsNegativeInfinity(t *testing.T) {
	m := NewMeter(48000)
	for i := 0; i < 20; i++ {
		m.ProcessBlock(silence(512), silence(512))
	}
	assert.True(t, math.IsInf(m.Momentary(), -1))
}

func TestLoudSignalRaisesMomentary(t *testing.T) {
	m := NewMeter(48000)
	for i := 0; i < 40; i++ {
		m.ProcessBlock(fullScale(512), fullScale(512))
	}
	assert.Greater(t, m.Momentary(), -20.0)
}

func TestIntegratedGatesQuietBlocks(t *testing.T) {
	m := NewMeter(48000)
	for i := 0; i < 50; i++ {
		m.ProcessBlock(fullScale(512), fullScale(512))
	}
	for i := 0; i < 50; i++ {
		m.ProcessBlock(silence(512), silence(512))
	}
	integrated := m.Integrated()
	assert.False(t, math.IsInf(integrated, -1))
	assert.Greater(t, integrated, -60.0)
}

func TestPeakTracksAbsoluteMax(t *testing.T) {
	m := NewMeter(48000)
	buf := make([]float32, 8)
	buf[3] = 0.5
	m.ProcessBlock(buf, buf)
	assert.InDelta(t, 20*math.Log10(0.5), m.PeakDB(), 0.5)
}
