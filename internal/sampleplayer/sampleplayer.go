// Package sampleplayer implements C4: playback of an immutable PCM
// buffer at an arbitrary rate, with trim, loop, and click-free stop
// (spec.md §4.4).
package sampleplayer

// Buffer is an immutable, shared-by-reference decoded PCM buffer
// (spec.md §5 "Shared resources: sample buffers are immutable after load
// and shared by reference"). Frames are interleaved per channel.
type Buffer struct {
	SampleRate int
	Channels   int
	Frames     []float32 // interleaved
}

func (b *Buffer) FrameCount() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Frames) / b.Channels
}

// LoopMode selects playback looping (spec.md §4.4).
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopForward
)

const fadeOutMS = 2.0

// Player is C4. Not safe for concurrent use; one Player lives on one
// track and is driven entirely from the audio thread.
type Player struct {
	buf        *Buffer
	sampleRate float64
	rate       float64 // playback ratio, 1.0 = native pitch
	startFrame int
	endFrame   int
	gain       float64
	loop       LoopMode

	pos       float64 // fractional frame position
	playing   bool
	stopping  bool
	fadeGain  float64
	fadeStep  float64
}

// New constructs a Player bound to the host sample rate (which may differ
// from the buffer's native rate; Rate should be set to compensate if the
// host wants native pitch).
func New(sampleRate float64) *Player {
	return &Player{sampleRate: sampleRate, rate: 1, gain: 1, fadeGain: 1}
}

// Load assigns the buffer to play and resets trim to the full buffer.
func (p *Player) Load(buf *Buffer) {
	p.buf = buf
	p.startFrame = 0
	if buf != nil {
		p.endFrame = buf.FrameCount()
	}
}

func (p *Player) SetTrim(startFrame, endFrame int) {
	p.startFrame = startFrame
	p.endFrame = endFrame
}

func (p *Player) SetRate(r float64)     { p.rate = r }
func (p *Player) SetGain(g float64)     { p.gain = g }
func (p *Player) SetLoop(m LoopMode)    { p.loop = m }

// Play starts playback from the trim start.
func (p *Player) Play() {
	if p.buf == nil {
		return
	}
	p.pos = float64(p.startFrame)
	p.playing = true
	p.stopping = false
	p.fadeGain = 1
}

// Stop begins a 2ms fade-out to avoid clicks (spec.md §4.4).
func (p *Player) Stop() {
	if !p.playing {
		return
	}
	p.stopping = true
	fadeSamples := fadeOutMS / 1000 * p.sampleRate
	if fadeSamples < 1 {
		fadeSamples = 1
	}
	p.fadeStep = 1.0 / fadeSamples
}

func (p *Player) Playing() bool { return p.playing }

// Render additively writes length mono (or channel-0) samples starting at
// startOffset of into. Fast path: when |rate-1| < 2^-16, no interpolation
// is performed (spec.md §4.4).
func (p *Player) Render(into []float32, startOffset, length int) {
	if !p.playing || p.buf == nil || p.buf.Channels == 0 {
		return
	}
	const fastPathEps = 1.0 / 65536.0
	fast := abs(p.rate-1) < fastPathEps
	n := p.buf.FrameCount()

	for i := 0; i < length; i++ {
		if !p.playing {
			break
		}
		if p.pos < 0 || int(p.pos) >= p.endFrame || int(p.pos) >= n {
			if p.loop == LoopForward && p.endFrame > p.startFrame {
				p.pos = float64(p.startFrame) + modWrap(p.pos-float64(p.startFrame), float64(p.endFrame-p.startFrame))
			} else {
				p.playing = false
				break
			}
		}

		var sample float32
		if fast {
			idx := int(p.pos)
			sample = p.frameAt(idx)
		} else {
			idx0 := int(p.pos)
			frac := p.pos - float64(idx0)
			idx1 := idx0 + 1
			if idx1 >= n {
				idx1 = idx0
			}
			s0 := p.frameAt(idx0)
			s1 := p.frameAt(idx1)
			sample = s0 + float32(frac)*(s1-s0)
		}

		g := float32(p.gain) * float32(p.fadeGain)
		into[startOffset+i] += sample * g

		if p.stopping {
			p.fadeGain -= p.fadeStep
			if p.fadeGain <= 0 {
				p.fadeGain = 0
				p.playing = false
				p.stopping = false
				break
			}
		}

		p.pos += p.rate
		if p.loop != LoopForward && (int(p.pos) >= p.endFrame || int(p.pos) >= n) {
			p.playing = false
		}
	}
}

// frameAt returns channel 0 of frame idx, or 0 out of range.
func (p *Player) frameAt(idx int) float32 {
	if idx < 0 || idx >= p.buf.FrameCount() {
		return 0
	}
	return p.buf.Frames[idx*p.buf.Channels]
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func modWrap(x, m float64) float64 {
	if m <= 0 {
		return 0
	}
	for x < 0 {
		x += m
	}
	for x >= m {
		x -= m
	}
	return x
}
