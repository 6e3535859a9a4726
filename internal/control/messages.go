package control

import "github.com/schollz/audioforge/internal/types"

// MessageKind tags the union of control-plane intents a producer can
// enqueue (spec.md §5): transport commands, note events, parameter
// writes, and graph mutations.
type MessageKind int

const (
	MsgNoteOn MessageKind = iota
	MsgNoteOff
	MsgParamSet
	MsgTransportPlay
	MsgTransportStop
	MsgTransportSeek
	MsgSetBPM
	MsgSetLoop
	MsgGraphMutate
)

// NowOffset is the sentinel TimeOffsetBeats meaning "apply at the start of
// the next block". The scheduler does not read TimeOffsetBeats: every
// message, whatever its offset, applies at the block that drains it.
const NowOffset = -1

// Message is POD except for Mutate, which carries an owned closure built
// on the control thread (may close over heap-allocated objects such as a
// freshly constructed effect or EQ band). The audio thread only ever
// calls Mutate; it never allocates one.
type Message struct {
	Kind            MessageKind
	TrackID         types.ID
	BusID           types.ID
	Note            int
	Velocity        float64
	TimeOffsetBeats float64
	ParamPath       string
	ParamValue      float64
	BPM             float64
	LoopStart       float64
	LoopEnd         float64
	LoopEnabled     bool
	SeekBeats       float64

	// Mutate performs a graph rewire atomically at a block boundary. It
	// must not allocate on a path the audio thread can reach more than
	// once (the closure itself was allocated on the control thread).
	Mutate func() error
}

// ReportKind tags the audio->control reverse ring (spec.md §5, §6 meter
// outputs).
type ReportKind int

const (
	ReportMeter ReportKind = iota
	ReportVoiceActivity
	ReportDSPFault
	ReportBackpressure
	ReportDisposed
)

// Report is the POD payload the audio thread posts for control threads to
// poll; Disposed carries an old graph object handed back for the control
// thread to drop, so no deallocation happens on the audio thread.
type Report struct {
	Kind            ReportKind
	TrackID         types.ID
	PeakDB          float64
	RMSDB           float64
	LUFSMomentary   float64
	LUFSShortTerm   float64
	LUFSIntegrated  float64
	GainReductionDB float64
	ActiveVoices    int
	FaultCounter    uint64
	Disposed        any

	// VoiceID/Note/StolenNote populate ReportVoiceActivity: a pool ran out
	// of idle voices and reused the one named by VoiceID/StolenNote to
	// play Note instead.
	VoiceID    int
	Note       int
	StolenNote int
}
