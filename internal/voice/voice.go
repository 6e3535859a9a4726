package voice

import (
	"math"

	"github.com/schollz/audioforge/internal/envelope"
	"github.com/schollz/audioforge/internal/eq"
	"github.com/schollz/audioforge/internal/types"
)

// FilterParams configures a voice's per-note filter (spec.md §4.3).
type FilterParams struct {
	Type          types.FilterType
	CutoffHz      float64
	Resonance     float64 // mapped to Q, clamped to [0.5, 20]
	EnvAmount     float64 // +/- cents-like modulation depth in Hz
	EnvPolarity   float64 // -1 or +1
	LFOAmount     float64
}

const (
	minVoiceQ = 0.5
	maxVoiceQ = 20
)

// VoiceParams is the static configuration a track hands a voice on
// trigger: waveform, detune, filter, and the two envelopes (spec.md §3).
type VoiceParams struct {
	Waveform   types.Waveform
	PulseWidth float64
	DetuneCts  float64
	Filter     FilterParams
	AmpEnv     envelope.Params
	FilterEnv  envelope.Params
	ResetPhase bool
}

// Voice is C3: one polyphonic note. Render is additive into the caller's
// block (spec.md §4.3 "render additively writes samples").
type Voice struct {
	id          types.VoiceID
	sampleRate  float64
	owner       types.ID // owning track id
	note        int
	frequency   float64
	velocity    float64
	state       types.VoiceState
	startedAt   int64 // monotonic sample counter at trigger, for steal tiebreak

	osc1    *Oscillator
	filter  *eq.Band
	ampEnv  *envelope.Envelope
	fltrEnv *envelope.Envelope
	lfo1    *LFO

	params VoiceParams
}

// NewVoice constructs an idle voice bound to a sample rate.
func NewVoice(id types.VoiceID, sampleRate float64) *Voice {
	return &Voice{
		id:         id,
		sampleRate: sampleRate,
		state:      types.StateIdle,
		osc1:       NewOscillator(sampleRate),
		filter:     eq.NewBand(sampleRate, eq.BandParams{Type: types.EQLowpass, FrequencyHz: 20000, Q: 0.707, Enabled: true}),
		ampEnv:     envelope.New(int(sampleRate), envelope.Params{AttackSec: 0.01, DecaySec: 0.1, Sustain: 0.8, ReleaseSec: 0.2, Peak: 1}),
		fltrEnv:    envelope.New(int(sampleRate), envelope.Params{AttackSec: 0.01, DecaySec: 0.1, Sustain: 0.8, ReleaseSec: 0.2, Peak: 1}),
		lfo1:       NewLFO(sampleRate),
	}
}

func (v *Voice) ID() types.VoiceID        { return v.id }
func (v *Voice) Owner() types.ID          { return v.owner }
func (v *Voice) Note() int                { return v.note }
func (v *Voice) State() types.VoiceState  { return v.state }
func (v *Voice) StartedAt() int64         { return v.startedAt }
func (v *Voice) IsIdle() bool             { return v.state == types.StateIdle }

// AmpLevel returns the voice's current amp-envelope output, used by the
// pool for voice-steal comparisons (spec.md §4.3, §8 property 5).
func (v *Voice) AmpLevel() float64 { return v.ampEnv.Value() }

// Trigger starts the voice (spec.md §4.3 "trigger(note, velocity,
// time_offset) starts the amp envelope attack"). Trigger takes no time
// offset, and the scheduler triggers every note-on of a block before
// rendering that block from its first sample, so a note starts at the
// block boundary rather than at its sample offset within the block.
func (v *Voice) Trigger(owner types.ID, note int, velocity float64, now int64, params VoiceParams) {
	v.owner = owner
	v.note = note
	v.velocity = clamp01(velocity)
	v.frequency = noteToFreq(note)
	v.startedAt = now
	v.params = params

	v.osc1.Waveform = params.Waveform
	v.osc1.PulseWidth = params.PulseWidth
	v.osc1.DetuneCts = params.DetuneCts
	v.osc1.SetFrequency(v.frequency)
	if params.ResetPhase {
		v.osc1.ResetPhase()
	}

	v.ampEnv.SetParams(params.AmpEnv)
	v.fltrEnv.SetParams(params.FilterEnv)
	v.ampEnv.Trigger()
	v.fltrEnv.Trigger()
	v.lfo1.Reset()

	v.state = types.StateAttack
}

// Release moves the voice to its release stage (spec.md §4.3).
func (v *Voice) Release() {
	if v.state == types.StateIdle {
		return
	}
	v.ampEnv.TriggerRelease()
	v.fltrEnv.TriggerRelease()
	v.state = types.StateRelease
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

func noteToFreq(note int) float64 {
	// MIDI note 69 = A4 = 440Hz.
	return 440 * math.Pow(2, float64(note-69)/12)
}

// Render additively writes len samples starting at startOffset of into,
// advancing internal oscillator/envelope/filter state. A no-op for an
// idle voice (spec.md §4.3 "render with no voices is a no-op").
func (v *Voice) Render(into []float32, startOffset, length int) {
	if v.state == types.StateIdle {
		return
	}
	p := &v.params
	for i := 0; i < length; i++ {
		amp := v.ampEnv.Next()
		fltrEnvV := v.fltrEnv.Next()
		lfoV := v.lfo1.Next()

		sample := v.osc1.Next()

		cutoff := p.Filter.CutoffHz + p.Filter.EnvAmount*p.Filter.EnvPolarity*fltrEnvV + p.Filter.LFOAmount*lfoV
		cutoff = clampCutoff(cutoff, v.sampleRate)
		q := clampQ(p.Filter.Resonance)
		v.filter.SetParams(eq.BandParams{
			Type:        filterEQType(p.Filter.Type),
			FrequencyHz: cutoff,
			Q:           q,
			Enabled:     true,
		})
		sample = v.filter.Process(sample)

		out := float32(sample * amp * v.velocity)
		into[startOffset+i] += out

		if v.ampEnv.Idle() && v.state == types.StateRelease {
			v.state = types.StateIdle
			// Zero-fill the remainder of this call; subsequent samples in
			// this block contribute nothing from this voice.
			continue
		}
	}
}

func clampCutoff(hz, sampleRate float64) float64 {
	nyquist := sampleRate * 0.5 * 0.99
	if hz < 20 {
		return 20
	}
	if hz > nyquist {
		return nyquist
	}
	return hz
}

func clampQ(q float64) float64 {
	if q < minVoiceQ {
		return minVoiceQ
	}
	if q > maxVoiceQ {
		return maxVoiceQ
	}
	return q
}

func filterEQType(t types.FilterType) types.EQBandType {
	switch t {
	case types.FilterHighpass:
		return types.EQHighpass
	case types.FilterBandpass:
		return types.EQBandpass
	default:
		return types.EQLowpass
	}
}
