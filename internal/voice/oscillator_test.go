package voice

import (
	"testing"

	"github.com/schollz/audioforge/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestOscillatorSetFrequencyClampsNonPositive(t *testing.T) {
	o := NewOscillator(48000)
	o.SetFrequency(-10)
	assert.Equal(t, 20.0, o.Frequency)

	o.SetFrequency(0)
	assert.Equal(t, 20.0, o.Frequency)
}

func TestOscillatorEffectiveFrequencyAppliesDetune(t *testing.T) {
	o := NewOscillator(48000)
	o.SetFrequency(440)
	o.DetuneCts = 1200 // one octave up
	assert.InDelta(t, 880.0, o.EffectiveFrequency(), 1e-9)
}

func TestOscillatorSineStaysInRange(t *testing.T) {
	o := NewOscillator(48000)
	o.Waveform = types.WaveSine
	o.SetFrequency(440)
	for i := 0; i < 4800; i++ {
		v := o.Next()
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestOscillatorSawtoothAntiAliasStaysBounded(t *testing.T) {
	o := NewOscillator(48000)
	o.Waveform = types.WaveSawtooth
	o.SetFrequency(2000)
	for i := 0; i < 4800; i++ {
		v := o.Next()
		// polyBLEP correction can overshoot the naive [-1,1] range slightly
		// right at the discontinuity; it must stay close.
		assert.GreaterOrEqual(t, v, -1.2)
		assert.LessOrEqual(t, v, 1.2)
	}
}

func TestOscillatorResetPhaseZeroesPhase(t *testing.T) {
	o := NewOscillator(48000)
	o.SetFrequency(440)
	o.Next()
	o.Next()
	assert.NotEqual(t, 0.0, o.Phase)
	o.ResetPhase()
	assert.Equal(t, 0.0, o.Phase)
}

func TestOscillatorUnknownWaveformIsSilent(t *testing.T) {
	o := NewOscillator(48000)
	o.Waveform = types.Waveform(99)
	o.SetFrequency(440)
	assert.Equal(t, 0.0, o.Next())
}
