package types

import "github.com/google/uuid"

// ID is a stable handle for tracks, buses, patterns, clips, and voices.
// Sessions index their owned arenas by ID; components that only need a
// weak reference (the sequencer, external event sources) hold IDs, never
// pointers (see spec.md §3 Ownership).
type ID string

// NewID returns a fresh random ID. Control-thread only: never call this
// from the audio thread (it allocates).
func NewID() ID {
	return ID(uuid.NewString())
}

// VoiceID identifies a voice within the voice pool's fixed-size slice.
// It is a plain slot index, not a UUID, because voices are reclaimed at
// audio-thread speed and must never allocate to get a fresh identifier.
type VoiceID int

// TrackKind enumerates the track types from spec.md §3.
type TrackKind int

const (
	TrackDrum TrackKind = iota
	TrackSynth
	TrackSample
	TrackBus
)

// ClipKind enumerates arrangement clip payload types.
type ClipKind int

const (
	ClipPattern ClipKind = iota
	ClipAudio
	ClipAutomation
)

// FilterType enumerates voice filter modes (C3 §4.3).
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
)

// Waveform enumerates oscillator shapes (C3 §4.3).
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
	WavePulse
)

// VoiceState is the lifecycle stage of a synth voice (spec.md §3).
type VoiceState int

const (
	StateIdle VoiceState = iota
	StateAttack
	StateDecay
	StateSustain
	StateRelease
)

// EQBandType enumerates the biquad topologies of C6.
type EQBandType int

const (
	EQPeaking EQBandType = iota
	EQLowShelf
	EQHighShelf
	EQLowpass
	EQHighpass
	EQNotch
	EQAllpass
	EQBandpass
)

// TransportState is the sequencer/scheduler play state (C2 §4.2).
type TransportState int

const (
	Stopped TransportState = iota
	Playing
)
