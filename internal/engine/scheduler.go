// Package engine implements C13 (the real-time scheduler) and C14 (the
// offline renderer): the single driver of the audio clock that drains
// the control-plane ring, advances the timebase and sequencer, and
// invokes the track/bus graph once per block.
package engine

import (
	"github.com/schollz/audioforge/internal/bus"
	"github.com/schollz/audioforge/internal/control"
	"github.com/schollz/audioforge/internal/sequencer"
	"github.com/schollz/audioforge/internal/timebase"
	"github.com/schollz/audioforge/internal/track"
	"github.com/schollz/audioforge/internal/types"
	"github.com/schollz/audioforge/internal/voice"
)

// DrainBudget bounds how many control messages the scheduler drains per
// block before giving up, so a flooded ring never blows the audio
// deadline (spec.md §4.13 "drain... until empty or until a budget is
// exceeded").
const DrainBudget = 256

// TrackRuntime is the live audio-thread state for one track: its voice
// pool (for synth/drum tracks) and its signal chain. monoBuf/outL/outR
// are pooled across blocks, grown once to blockLen and never reallocated
// once steady-state (spec.md §4.13, §5 "the scheduler never allocates").
type TrackRuntime struct {
	ID          types.ID
	Voices      *voice.Pool // nil for sample/bus tracks
	VoiceParams voice.VoiceParams
	Strip       *track.Strip
	monoBuf     []float32
	outL        []float32
	outR        []float32
}

// Scheduler is C13. It owns nothing about musical content (that's the
// Sequencer/Session); it only drives the pull loop each block.
type Scheduler struct {
	tb      *timebase.TimeBase
	seq     *sequencer.Sequencer
	graph   *bus.Graph
	tracks  map[types.ID]*TrackRuntime
	control *control.Ring[control.Message]
	reports *control.Ring[control.Report]

	blockLen int

	// inputL/inputR/sendBuf are the scheduler's own pooled mix buffers,
	// reused block to block instead of built fresh with make().
	inputL  map[int][]float32
	inputR  map[int][]float32
	sendBuf map[types.ID][]float32
}

func NewScheduler(tb *timebase.TimeBase, seq *sequencer.Sequencer, graph *bus.Graph, blockLen int, ctl *control.Ring[control.Message], reports *control.Ring[control.Report]) *Scheduler {
	return &Scheduler{
		tb: tb, seq: seq, graph: graph, blockLen: blockLen,
		tracks:  make(map[types.ID]*TrackRuntime),
		control: ctl, reports: reports,
		inputL:  map[int][]float32{bus.MasterIndex: make([]float32, blockLen)},
		inputR:  map[int][]float32{bus.MasterIndex: make([]float32, blockLen)},
		sendBuf: make(map[types.ID][]float32),
	}
}

func (s *Scheduler) AddTrack(rt *TrackRuntime) {
	if rt.Voices != nil {
		rt.Voices.SetReports(s.reports)
	}
	s.tracks[rt.ID] = rt
}

// DrainReports lets a control thread poll the audio thread's reverse
// ring (spec.md §5, §6) — meter updates and voice-steal notices the
// audio thread posted with TryPush but never logs itself.
func (s *Scheduler) DrainReports(budget int, fn func(control.Report)) int {
	if s.reports == nil {
		return 0
	}
	return s.reports.Drain(budget, fn)
}

// RenderBlock performs one scheduler iteration per spec.md §4.13 and
// writes blockLen stereo frames into outL/outR. The per-block track, send
// and bus buffers are pooled on the Scheduler or TrackRuntime and merely
// re-zeroed, never remade; the block is still not allocation-free, since
// the sequencer's event slice and the bus graph's processing order are
// built anew for each block.
func (s *Scheduler) RenderBlock(outL, outR []float32) {
	n := s.blockLen
	s.drainControl()

	blockStart := s.tb.PositionSamples()
	events := s.seq.NextEvents(blockStart, n)

	anySoloed := false
	for _, rt := range s.tracks {
		if rt.Strip.State().Soloed {
			anySoloed = true
			break
		}
	}

	for _, ev := range events {
		rt, ok := s.tracks[ev.TrackID]
		if !ok {
			continue
		}
		switch ev.Kind {
		case sequencer.EventNoteOff:
			if rt.Voices != nil {
				rt.Voices.NoteOff(ev.TrackID, ev.Note)
			}
		case sequencer.EventNoteOn:
			if rt.Voices != nil {
				rt.Voices.NoteOn(ev.TrackID, ev.Note, ev.Velocity, rt.VoiceParams)
			}
		case sequencer.EventAutomation:
			applyTrackParam(rt, ev.ParamName, ev.ParamValue)
		}
	}

	masterL := zeroed(s.inputL[bus.MasterIndex])
	masterR := zeroed(s.inputR[bus.MasterIndex])
	s.inputL[bus.MasterIndex] = masterL
	s.inputR[bus.MasterIndex] = masterR

	for _, rt := range s.tracks {
		if cap(rt.monoBuf) < n {
			rt.monoBuf = make([]float32, n)
		}
		buf := rt.monoBuf[:n]
		for i := range buf {
			buf[i] = 0
		}
		if rt.Voices != nil {
			rt.Voices.Render(buf, 0, n)
			rt.Voices.Advance(n)
		}

		if cap(rt.outL) < n {
			rt.outL = make([]float32, n)
		}
		if cap(rt.outR) < n {
			rt.outR = make([]float32, n)
		}
		tOutL := rt.outL[:n]
		tOutR := rt.outR[:n]

		solo := track.SoloState{AnySoloed: anySoloed, ThisSoloed: rt.Strip.State().Soloed}
		rt.Strip.Process(buf, tOutL, tOutR, solo, s.sendBuf)

		for i := 0; i < n; i++ {
			masterL[i] += tOutL[i]
			masterR[i] += tOutR[i]
		}
	}

	_ = s.graph.Render(s.inputL, s.inputR, outL, outR)
	s.forgetNonMasterInputs()
	s.tb.AdvanceSamples(n)
	s.reportMeters()
}

// forgetNonMasterInputs drops any per-bus buffer entries Render added to
// s.inputL/s.inputR while summing children into a non-master parent this
// block (bus.Graph pools those internally on its own Node, keyed buffers
// here are just a cache for the duration of one Render call). Without
// this, a stale entry from a prior block would be reused as live input
// next time instead of the zeroed buffer Render expects. Only the master
// slot is long-lived scheduler state; map deletes never allocate.
func (s *Scheduler) forgetNonMasterInputs() {
	for k := range s.inputL {
		if k != bus.MasterIndex {
			delete(s.inputL, k)
			delete(s.inputR, k)
		}
	}
}

// zeroed returns buf zeroed out, reusing its backing array.
func zeroed(buf []float32) []float32 {
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// applyTrackParam routes a parameter path from automation or an external
// control message (spec.md §5/§6) onto the track's mixer state. Unknown
// paths are ignored, matching the audio thread's never-panics contract.
func applyTrackParam(rt *TrackRuntime, path string, value float64) {
	st := rt.Strip.State()
	switch path {
	case "pre_gain_db":
		st.PreGainDB = value
	case "post_gain_db":
		st.PostGainDB = value
	case "pan":
		st.Pan = value
	case "mute":
		st.Muted = value != 0
	case "solo":
		st.Soloed = value != 0
	default:
		return
	}
	rt.Strip.SetState(st)
}

// drainControl applies queued control messages up to DrainBudget,
// dispatching each by Kind (spec.md §5/§6's external-event-source
// contract: MIDI/OSC note and parameter events, transport commands, and
// graph-rewire Mutate closures all arrive this way) and then running any
// attached Mutate closure.
func (s *Scheduler) drainControl() {
	if s.control == nil {
		return
	}
	s.control.Drain(DrainBudget, func(msg control.Message) {
		s.applyControlMessage(msg)
	})
}

func (s *Scheduler) applyControlMessage(msg control.Message) {
	switch msg.Kind {
	case control.MsgNoteOn:
		if rt, ok := s.tracks[msg.TrackID]; ok && rt.Voices != nil {
			rt.Voices.NoteOn(msg.TrackID, msg.Note, msg.Velocity, rt.VoiceParams)
		}
	case control.MsgNoteOff:
		if rt, ok := s.tracks[msg.TrackID]; ok && rt.Voices != nil {
			rt.Voices.NoteOff(msg.TrackID, msg.Note)
		}
	case control.MsgParamSet:
		if rt, ok := s.tracks[msg.TrackID]; ok {
			applyTrackParam(rt, msg.ParamPath, msg.ParamValue)
		}
	case control.MsgTransportPlay:
		s.seq.Play()
	case control.MsgTransportStop:
		s.seq.Stop()
	case control.MsgTransportSeek:
		s.seq.Seek(msg.SeekBeats)
	case control.MsgSetBPM:
		s.tb.SetBPM(msg.BPM)
	case control.MsgSetLoop:
		s.seq.SetLoop(msg.LoopStart, msg.LoopEnd, msg.LoopEnabled)
	case control.MsgGraphMutate:
		// handled below via Mutate; the Kind exists only to document intent.
	}
	if msg.Mutate != nil {
		_ = msg.Mutate()
	}
}

func (s *Scheduler) reportMeters() {
	if s.reports == nil {
		return
	}
	meter := s.graph.MeterTap()
	s.reports.TryPush(control.Report{
		Kind:           control.ReportMeter,
		LUFSMomentary:  meter.Momentary(),
		LUFSIntegrated: meter.Integrated(),
		PeakDB:         meter.PeakDB(),
	})
}
