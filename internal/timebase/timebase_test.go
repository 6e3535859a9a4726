package timebase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeatsToSamplesRoundTrip(t *testing.T) {
	// spec.md §8 property 1: round-trip drift must stay within 1 sample.
	for _, bpm := range []float64{20, 60, 120, 120.5, 300} {
		tb := New(48000, bpm, 4, 4)
		for _, n := range []int64{0, 1, 1000, 48000, 1<<20 + 7} {
			beats := tb.SamplesToBeats(int(n))
			back := tb.BeatsToSamples(beats)
			diff := back - n
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqualf(t, diff, int64(1), "bpm=%v n=%v back=%v", bpm, n, back)
		}
	}
}

func TestSetBPMPreservesBeats(t *testing.T) {
	tb := New(48000, 120, 4, 4)
	tb.Seek(8)
	require.Equal(t, 8.0, tb.PositionBeats())
	tb.SetBPM(200)
	assert.Equal(t, 8.0, tb.PositionBeats(), "BPM change must preserve beats, not samples")
}

func TestBPMClamped(t *testing.T) {
	tb := New(48000, 10, 4, 4)
	assert.Equal(t, MinBPM, tb.BPM())
	tb.SetBPM(10000)
	assert.Equal(t, MaxBPM, tb.BPM())
}

func TestAdvanceSamples(t *testing.T) {
	tb := New(48000, 120, 4, 4)
	tb.AdvanceSamples(48000 / 2) // one beat at 120bpm, 48kHz
	assert.InDelta(t, 1.0, tb.PositionBeats(), 1e-6)
}

func TestSnapBeats(t *testing.T) {
	tb := New(48000, 120, 4, 4)
	assert.Equal(t, 0.75, tb.SnapBeats(0.9, SnapStep))
	assert.Equal(t, 3.0, tb.SnapBeats(3.9, SnapBeat))
	assert.Equal(t, 0.0, tb.SnapBeats(3.9, SnapBar))
}

func TestRoundHalfEven(t *testing.T) {
	assert.Equal(t, 2.0, roundHalfEven(2.5))
	assert.Equal(t, 4.0, roundHalfEven(3.5))
	assert.True(t, math.Abs(roundHalfEven(2.4)-2.0) < 1e-9)
}
