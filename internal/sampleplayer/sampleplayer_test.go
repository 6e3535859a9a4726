package sampleplayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mono(values ...float32) *Buffer {
	return &Buffer{SampleRate: 48000, Channels: 1, Frames: values}
}

func TestPlayFastPathCopiesSamplesVerbatim(t *testing.T) {
	p := New(48000)
	p.Load(mono(1, 2, 3, 4, 5))
	p.Play()

	out := make([]float32, 5)
	p.Render(out, 0, 5)
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, out)
	assert.False(t, p.Playing())
}

func TestPlayStopsAtEndOfTrim(t *testing.T) {
	p := New(48000)
	p.Load(mono(1, 2, 3, 4, 5))
	p.SetTrim(1, 3)
	p.Play()

	out := make([]float32, 5)
	p.Render(out, 0, 5)
	assert.Equal(t, []float32{2, 3, 0, 0, 0}, out)
}

func TestLoopForwardWraps(t *testing.T) {
	p := New(48000)
	p.Load(mono(1, 2, 3))
	p.SetLoop(LoopForward)
	p.Play()

	out := make([]float32, 7)
	p.Render(out, 0, 7)
	assert.Equal(t, []float32{1, 2, 3, 1, 2, 3, 1}, out)
	assert.True(t, p.Playing())
}

func TestInterpolationBlendsNeighbors(t *testing.T) {
	p := New(48000)
	p.Load(mono(0, 10))
	p.SetRate(0.5)
	p.Play()

	out := make([]float32, 2)
	p.Render(out, 0, 2)
	assert.InDelta(t, 0, out[0], 1e-6)
	assert.InDelta(t, 5, out[1], 1e-6)
}

func TestStopFadesOutWithoutDiscontinuity(t *testing.T) {
	p := New(48000)
	p.Load(mono(make([]float32, 1000)...))
	for i := range p.buf.Frames {
		p.buf.Frames[i] = 1
	}
	p.Play()
	p.Stop()

	out := make([]float32, 200)
	p.Render(out, 0, 200)
	assert.False(t, p.Playing())
	assert.Less(t, out[199], out[0])
}

func TestAdditiveRenderDoesNotClear(t *testing.T) {
	p := New(48000)
	p.Load(mono(1, 1, 1))
	p.Play()

	out := []float32{5, 5, 5}
	p.Render(out, 0, 3)
	assert.Equal(t, []float32{6, 6, 6}, out)
}
