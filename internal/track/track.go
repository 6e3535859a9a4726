// Package track implements C10: the fixed-topology per-track signal
// chain (input -> pre_gain -> EQ -> compressor -> insert chain ->
// post_gain -> pan -> mute_gate -> output), plus pre-pan send taps and
// mute/solo semantics.
package track

import (
	"math"

	"github.com/schollz/audioforge/internal/dynamics"
	"github.com/schollz/audioforge/internal/effects"
	"github.com/schollz/audioforge/internal/eq"
	"github.com/schollz/audioforge/internal/types"
)

// Send is a pre-pan tap to a named bus at a fixed gain.
type Send struct {
	BusID types.ID
	GainDB float64
}

// MixerState is the persistable snapshot of a track's mixer controls
// (spec.md C10 "State is exposed as a TrackMixerState snapshot").
type MixerState struct {
	PreGainDB  float64
	PostGainDB float64
	Pan        float64 // -1..+1
	Muted      bool
	Soloed     bool
	EQEnabled  bool
	CompEnabled bool
	Sends      []Send
}

// Strip is C10, one per track.
type Strip struct {
	ID types.ID

	state MixerState

	eqStack    *eq.Stack
	compressor *dynamics.Compressor
	inserts    *effects.Chain

	scratchL []float32
	scratchR []float32
}

// NewStrip constructs a track strip with an empty EQ stack, a compressor
// and an empty insert chain; the EQ and compressor stages stay off until
// the mixer state enables them.
func NewStrip(id types.ID, sampleRate float64) *Strip {
	return &Strip{
		ID:         id,
		state:      MixerState{PostGainDB: 0, Pan: 0},
		eqStack:    eq.NewStack(sampleRate, 2048),
		compressor: dynamics.New(sampleRate),
		inserts:    effects.NewChain(),
	}
}

func (s *Strip) State() MixerState     { return s.state }
func (s *Strip) SetState(st MixerState) { s.state = st }

func (s *Strip) EQ() *eq.Stack              { return s.eqStack }
func (s *Strip) Compressor() *dynamics.Compressor { return s.compressor }
func (s *Strip) Inserts() *effects.Chain    { return s.inserts }

// PanGains returns the equal-power L/R gain pair for the current pan
// position (spec.md C10: gL = cos((pan+1)*pi/4), gR = sin((pan+1)*pi/4)).
func PanGains(pan float64) (gL, gR float64) {
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

func dbToLinear(db float64) float64 { return math.Pow(10, db/20) }

// SoloState tells Process whether any track in the session is soloed,
// so muted-by-solo tracks output silence while leaving their own Muted
// flag semantics (mute always silences, independent of solo) intact.
type SoloState struct {
	AnySoloed    bool
	ThisSoloed   bool
}

// Process runs the fixed C10 topology over a mono input block, writing
// stereo output into outL/outR (both length = len(input)) and appending
// pre-pan send taps into sendOut (same length, one buffer per configured
// send, caller-supplied and pre-zeroed).
func (s *Strip) Process(input []float32, outL, outR []float32, sends SoloState, sendOut map[types.ID][]float32) {
	n := len(input)
	if cap(s.scratchL) < n {
		s.scratchL = make([]float32, n)
	}
	buf := s.scratchL[:n]
	copy(buf, input)

	preGain := float32(dbToLinear(s.state.PreGainDB))
	for i := range buf {
		buf[i] *= preGain
	}

	if s.state.EQEnabled && s.eqStack != nil {
		s.eqStack.ProcessBlock(buf)
	}
	if s.state.CompEnabled && s.compressor != nil {
		s.compressor.ProcessBlock(buf, nil)
	}
	if s.inserts != nil {
		s.inserts.ProcessBlock(buf)
	}

	postGain := float32(dbToLinear(s.state.PostGainDB))
	for i := range buf {
		buf[i] *= postGain
	}

	for _, send := range s.state.Sends {
		dst, ok := sendOut[send.BusID]
		if !ok || len(dst) != n {
			continue
		}
		g := float32(dbToLinear(send.GainDB))
		for i := range buf {
			dst[i] += buf[i] * g
		}
	}

	audible := !s.state.Muted && (!sends.AnySoloed || sends.ThisSoloed)
	if !audible {
		for i := 0; i < n; i++ {
			outL[i] = 0
			outR[i] = 0
		}
		return
	}

	gL, gR := PanGains(s.state.Pan)
	fgL, fgR := float32(gL), float32(gR)
	for i := 0; i < n; i++ {
		outL[i] = buf[i] * fgL
		outR[i] = buf[i] * fgR
	}
}
