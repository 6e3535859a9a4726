package eq

import (
	"math"

	"github.com/schollz/audioforge/internal/types"
)

// MaxBands is the hard cap on bands per stack (spec.md §4.7, §7
// CapacityExceeded).
const MaxBands = 24

// Mode selects between the pure cascade and the linear-phase FIR path
// (spec.md §4.7).
type Mode int

const (
	ModeZeroLatency Mode = iota
	ModeLinearPhase
)

// Stack is C7: up to 24 series biquad bands plus a character saturator
// and an optional linear-phase convolution path. Band add/remove/reorder
// is safe during streaming because the scheduler applies mutations
// atomically between blocks (spec.md §4.7, §5) — Stack itself is only
// ever touched from one thread at a time by construction; the control
// ring enforces that serialization.
type Stack struct {
	sampleRate float64
	mode       Mode
	bands      []*Band // order is processing order
	bypass     bool
	dryWet     float64 // 0=dry, 1=fully processed

	characterEnabled bool
	characterDryWet  float64
	characterDrive   float64

	linear *linearPhaseProcessor
	fftSize int
}

// NewStack constructs an empty stack in zero-latency mode.
func NewStack(sampleRate float64, fftSize int) *Stack {
	if fftSize <= 0 {
		fftSize = 4096
	}
	return &Stack{
		sampleRate: sampleRate,
		dryWet:     1,
		fftSize:    nextPow2Between(fftSize, 256, 8192),
	}
}

func nextPow2Between(n, lo, hi int) int {
	p := 256
	for p < n {
		p <<= 1
	}
	if p < lo {
		p = lo
	}
	if p > hi {
		p = hi
	}
	return p
}

// AddBand appends a band, returning CapacityExceeded past MaxBands.
func (s *Stack) AddBand(p BandParams) (*Band, error) {
	if len(s.bands) >= MaxBands {
		return nil, types.NewError(types.CapacityExceeded, "Stack.AddBand", "24 band limit reached")
	}
	b := NewBand(s.sampleRate, p)
	s.bands = append(s.bands, b)
	s.invalidateLinearPhase()
	return b, nil
}

// RemoveBand removes the band with the given id.
func (s *Stack) RemoveBand(id types.ID) error {
	for i, b := range s.bands {
		if b.params.ID == id {
			s.bands = append(s.bands[:i], s.bands[i+1:]...)
			s.invalidateLinearPhase()
			return nil
		}
	}
	return types.NewError(types.InvalidParameter, "Stack.RemoveBand", "no such band id")
}

// Bands returns the bands in processing order; callers must not mutate
// the slice directly, only through AddBand/RemoveBand/Reorder.
func (s *Stack) Bands() []*Band { return s.bands }

// Reorder moves the band at from to position to.
func (s *Stack) Reorder(from, to int) error {
	if from < 0 || from >= len(s.bands) || to < 0 || to >= len(s.bands) {
		return types.NewError(types.InvalidParameter, "Stack.Reorder", "index out of range")
	}
	b := s.bands[from]
	s.bands = append(s.bands[:from], s.bands[from+1:]...)
	s.bands = append(s.bands[:to], append([]*Band{b}, s.bands[to:]...)...)
	s.invalidateLinearPhase()
	return nil
}

func (s *Stack) SetMode(m Mode) {
	s.mode = m
	if m == ModeLinearPhase {
		s.invalidateLinearPhase()
	}
}

func (s *Stack) SetBypass(b bool)      { s.bypass = b }
func (s *Stack) SetDryWet(v float64)   { s.dryWet = clamp(v, 0, 1) }
func (s *Stack) SetCharacter(enabled bool, dryWet, drive float64) {
	s.characterEnabled = enabled
	s.characterDryWet = clamp(dryWet, 0, 1)
	s.characterDrive = drive
}

// LatencySamples reports the processing latency the host must compensate
// for (spec.md §4.7, §8 property 8): zero in zero-latency mode, fftSize/2
// in linear-phase mode.
func (s *Stack) LatencySamples() int {
	if s.mode == ModeLinearPhase {
		return s.fftSize / 2
	}
	return 0
}

func (s *Stack) invalidateLinearPhase() {
	s.linear = nil
}

// ProcessBlock runs the stack's configured mode over an interleaved or
// mono buffer of float32 samples in place.
func (s *Stack) ProcessBlock(buf []float32) {
	if s.bypass {
		return // input passes through bit-exactly (spec.md §8 property 6)
	}
	if s.mode == ModeLinearPhase {
		s.processLinearPhase(buf)
		return
	}
	s.processZeroLatency(buf)
}

func (s *Stack) processZeroLatency(buf []float32) {
	for i, x := range buf {
		dry := x
		wet := x
		for _, b := range s.bands {
			wet = float32(b.Process(float64(wet)))
		}
		if s.characterEnabled {
			wet = s.character(wet)
		}
		buf[i] = dry + (wet-dry)*float32(s.dryWet)
	}
}

// character applies a tanh waveshaper, mixed dry/wet at equal energy.
// The loop averages four evaluations of tanh on the same input sample,
// which equals a single evaluation: the shaper runs at the base sample
// rate, with no oversampling and no suppression of its aliasing.
func (s *Stack) character(x float32) float32 {
	const os = 4
	var acc float64
	v := float64(x)
	for i := 0; i < os; i++ {
		acc += math.Tanh(v * (1 + s.characterDrive))
	}
	shaped := float32(acc / os)
	wetGain := float32(math.Sqrt(float64(s.characterDryWet)))
	dryGain := float32(math.Sqrt(float64(1 - s.characterDryWet)))
	return x*dryGain + shaped*wetGain
}
