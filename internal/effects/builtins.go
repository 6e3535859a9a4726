package effects

import "math"

// Delay is a fixed-feedback mono delay line, one of the built-in insert
// effect kinds (spec.md C9).
type Delay struct {
	buf      []float32
	writePos int
	feedback float64
	mixDB    float64
}

func NewDelay(sampleRate float64, delayMS, feedback float64) *Delay {
	n := int(delayMS / 1000 * sampleRate)
	if n < 1 {
		n = 1
	}
	return &Delay{buf: make([]float32, n), feedback: feedback}
}

func (d *Delay) Kind() Kind { return KindDelay }

func (d *Delay) ProcessBlock(buf []float32) {
	for i, s := range buf {
		delayed := d.buf[d.writePos]
		d.buf[d.writePos] = s + delayed*float32(d.feedback)
		d.writePos = (d.writePos + 1) % len(d.buf)
		buf[i] = delayed
	}
}

func (d *Delay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.writePos = 0
}

// Chorus is a short modulated-delay pitch-thickening effect.
type Chorus struct {
	buf       []float32
	writePos  int
	phase     float64
	rateHz    float64
	depthMS   float64
	sampleRate float64
}

func NewChorus(sampleRate, rateHz, depthMS float64) *Chorus {
	maxDelayMS := depthMS*2 + 5
	n := int(maxDelayMS / 1000 * sampleRate)
	if n < 2 {
		n = 2
	}
	return &Chorus{buf: make([]float32, n), rateHz: rateHz, depthMS: depthMS, sampleRate: sampleRate}
}

func (c *Chorus) Kind() Kind { return KindChorus }

func (c *Chorus) ProcessBlock(buf []float32) {
	for i, s := range buf {
		c.buf[c.writePos] = s
		c.writePos = (c.writePos + 1) % len(c.buf)

		lfo := (math.Sin(2*math.Pi*c.phase) + 1) / 2
		delaySamples := (c.depthMS / 1000 * c.sampleRate) * lfo
		readPos := float64(c.writePos) - delaySamples
		for readPos < 0 {
			readPos += float64(len(c.buf))
		}
		idx0 := int(readPos) % len(c.buf)
		idx1 := (idx0 + 1) % len(c.buf)
		frac := float32(readPos - math.Floor(readPos))
		wet := c.buf[idx0] + frac*(c.buf[idx1]-c.buf[idx0])

		buf[i] = (s + wet) * 0.5

		c.phase += c.rateHz / c.sampleRate
		if c.phase >= 1 {
			c.phase -= 1
		}
	}
}

func (c *Chorus) Reset() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.writePos = 0
	c.phase = 0
}

// Distortion applies a symmetric tanh waveshaper, the same curve
// eq.Stack uses for its analog "character" mode, at a caller-set drive.
type Distortion struct {
	drive float64
}

func NewDistortion(drive float64) *Distortion {
	return &Distortion{drive: drive}
}

func (d *Distortion) Kind() Kind { return KindDistortion }

func (d *Distortion) ProcessBlock(buf []float32) {
	g := float32(1 + d.drive*9)
	norm := float32(1 / math.Tanh(float64(g)))
	for i, s := range buf {
		buf[i] = float32(math.Tanh(float64(s*g))) * norm
	}
}

func (d *Distortion) Reset() {}
