// Package session holds the root data model (spec.md §3): patterns,
// clips, tracks, the arrangement timeline, buses, and the loop region,
// plus a JSON-serializable snapshot for the persisted-state contract
// the project's outer UI/storage layer depends on.
package session

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/schollz/audioforge/internal/types"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Step is one cell of a Pattern's per-track boolean grid.
type Step struct {
	Active       bool
	Velocity     float64 // 0-1
	OffsetFrac   float64 // 0-1 of a step's duration, sample offset within the step
	Note         int     // MIDI note, drum tracks may ignore
}

// Pattern is a value object: an ordered sequence of StepCount boolean
// steps per track, DefaultStepCount when unspecified (spec.md §3).
type Pattern struct {
	ID       types.ID
	Name     string
	Steps    []Step // length = StepCount
	StepCount int
}

const DefaultStepCount = 16

func NewPattern(name string, stepCount int) *Pattern {
	if stepCount <= 0 {
		stepCount = DefaultStepCount
	}
	return &Pattern{ID: types.NewID(), Name: name, Steps: make([]Step, stepCount), StepCount: stepCount}
}

// Clip places a pattern, audio buffer, or automation curve on the
// arrangement timeline (spec.md §3).
type Clip struct {
	ID          types.ID
	TrackID     types.ID
	StartBeat   float64
	LengthBeats float64
	Kind        types.ClipKind
	PayloadID   types.ID
	Muted       bool
}

// Validate enforces the clip invariants from spec.md §3: minimum
// length, no same-track overlap (checked by the caller across a
// track's clip set), and containment within the arrangement.
func (c *Clip) Validate(snapIntervalBeats, arrangementLengthBeats float64) error {
	if c.LengthBeats < snapIntervalBeats {
		return types.NewError(types.InvalidParameter, "Clip.Validate", "length_beats below snap_interval")
	}
	if c.StartBeat+c.LengthBeats > arrangementLengthBeats {
		return types.NewError(types.InvalidParameter, "Clip.Validate", "clip exceeds arrangement length")
	}
	return nil
}

// AutomationPoint is one knot of an automation curve, keyed by beat
// position rather than time so it stays correct across BPM changes
// (spec.md §4.2 "on BPM change, pending future events are recomputed
// from their beat positions").
type AutomationPoint struct {
	Beat  float64
	Value float64
}

// AutomationCurve is the payload an automation clip's PayloadID points
// to: the track parameter it drives plus its knot sequence, sorted by
// ascending Beat (spec.md §3 clip kind "automation", §4.2 "automation
// events are interpolated at block boundaries").
type AutomationCurve struct {
	ID        types.ID
	ParamName string
	Points    []AutomationPoint
}

// TrackParams mirrors spec.md §3's Track.params field set.
type TrackParams struct {
	Volume      float64 // 0-1
	Pan         float64 // -1..+1
	AmpAttack   float64
	AmpDecay    float64
	AmpSustain  float64
	AmpRelease  float64
	FilterCutoffHz float64
	FilterResonance float64
	FilterType  types.FilterType
	DetuneCents float64
	Waveform    types.Waveform
	SendLevels  map[string]float64 // bus name -> gain
}

// Track is the session's owning record for one track; its strip and
// insert chain live in internal/track, addressed by TrackID from here.
type Track struct {
	ID      types.ID
	Name    string
	Kind    types.TrackKind
	Color   string
	Muted   bool
	Soloed  bool
	Params  TrackParams
}

// LoopRegion is the sequencer's loop window (spec.md §3).
type LoopRegion struct {
	StartBeat float64
	EndBeat   float64
	Enabled   bool
}

func (l LoopRegion) Valid() bool { return l.StartBeat < l.EndBeat }

// BusRecord is the session-owned bus description; the live DSP graph
// (internal/bus.Graph) is built from these at session-activation time.
type BusRecord struct {
	ID         types.ID
	Name       string
	InputGainDB  float64
	OutputGainDB float64
	ParentID   types.ID // zero value means parented to master
}

const MasterBusName = "master"

// Session exclusively owns tracks, buses, patterns, the arrangement,
// and (by reference) the voice pool and live DSP graph (spec.md §3
// Ownership). Session itself holds only the value-object data; the
// engine package wires it to live audio-thread state.
type Session struct {
	ID             types.ID
	SampleRate     int
	BPM            float64
	StepsPerBeat   int
	ArrangementLen float64 // beats

	Tracks       map[types.ID]*Track
	Patterns     map[types.ID]*Pattern
	Automations  map[types.ID]*AutomationCurve
	Clips        []*Clip
	Buses        map[types.ID]*BusRecord
	Loop         LoopRegion
}

func New(sampleRate int, bpm float64) *Session {
	master := &BusRecord{ID: types.ID(MasterBusName), Name: MasterBusName}
	return &Session{
		ID:             types.NewID(),
		SampleRate:     sampleRate,
		BPM:            bpm,
		StepsPerBeat:   4,
		ArrangementLen: 256,
		Tracks:         make(map[types.ID]*Track),
		Patterns:       make(map[types.ID]*Pattern),
		Automations:    make(map[types.ID]*AutomationCurve),
		Buses:          map[types.ID]*BusRecord{master.ID: master},
	}
}

func (s *Session) AddTrack(t *Track) { s.Tracks[t.ID] = t }

func (s *Session) AddPattern(p *Pattern) { s.Patterns[p.ID] = p }

func (s *Session) AddAutomation(a *AutomationCurve) { s.Automations[a.ID] = a }

// AddClip validates against the owning track's existing clips before
// appending (spec.md §3 "clips in the same track do not overlap").
func (s *Session) AddClip(c *Clip) error {
	if err := c.Validate(1.0/float64(s.StepsPerBeat), s.ArrangementLen); err != nil {
		return err
	}
	for _, existing := range s.Clips {
		if existing.TrackID != c.TrackID {
			continue
		}
		if overlaps(existing.StartBeat, existing.LengthBeats, c.StartBeat, c.LengthBeats) {
			return types.NewError(types.InvalidState, "Session.AddClip", "overlaps existing clip on track")
		}
	}
	s.Clips = append(s.Clips, c)
	return nil
}

func overlaps(aStart, aLen, bStart, bLen float64) bool {
	aEnd := aStart + aLen
	bEnd := bStart + bLen
	return aStart < bEnd && bStart < aEnd
}

// Snapshot is the flattened, json-iterator-marshaled persisted-state
// contract the outer project-storage layer (out of scope here) reads
// and writes.
type Snapshot struct {
	ID             types.ID               `json:"id"`
	SampleRate     int                    `json:"sample_rate"`
	BPM            float64                `json:"bpm"`
	StepsPerBeat   int                    `json:"steps_per_beat"`
	ArrangementLen float64                `json:"arrangement_len"`
	Tracks         []*Track               `json:"tracks"`
	Patterns       []*Pattern             `json:"patterns"`
	Automations    []*AutomationCurve     `json:"automations"`
	Clips          []*Clip                `json:"clips"`
	Buses          []*BusRecord           `json:"buses"`
	Loop           LoopRegion             `json:"loop"`
}

func (s *Session) ToSnapshot() Snapshot {
	snap := Snapshot{
		ID: s.ID, SampleRate: s.SampleRate, BPM: s.BPM,
		StepsPerBeat: s.StepsPerBeat, ArrangementLen: s.ArrangementLen,
		Clips: s.Clips, Loop: s.Loop,
	}
	for _, t := range s.Tracks {
		snap.Tracks = append(snap.Tracks, t)
	}
	for _, p := range s.Patterns {
		snap.Patterns = append(snap.Patterns, p)
	}
	for _, a := range s.Automations {
		snap.Automations = append(snap.Automations, a)
	}
	for _, b := range s.Buses {
		snap.Buses = append(snap.Buses, b)
	}
	return snap
}

func (s *Session) MarshalJSON() ([]byte, error) {
	return jsonAPI.Marshal(s.ToSnapshot())
}

func FromSnapshot(snap Snapshot) *Session {
	s := &Session{
		ID: snap.ID, SampleRate: snap.SampleRate, BPM: snap.BPM,
		StepsPerBeat: snap.StepsPerBeat, ArrangementLen: snap.ArrangementLen,
		Tracks: make(map[types.ID]*Track), Patterns: make(map[types.ID]*Pattern),
		Automations: make(map[types.ID]*AutomationCurve),
		Buses:       make(map[types.ID]*BusRecord), Clips: snap.Clips, Loop: snap.Loop,
	}
	for _, t := range snap.Tracks {
		s.Tracks[t.ID] = t
	}
	for _, p := range snap.Patterns {
		s.Patterns[p.ID] = p
	}
	for _, a := range snap.Automations {
		s.Automations[a.ID] = a
	}
	for _, b := range snap.Buses {
		s.Buses[b.ID] = b
	}
	return s
}

func UnmarshalSnapshot(data []byte) (*Session, error) {
	var snap Snapshot
	if err := jsonAPI.Unmarshal(data, &snap); err != nil {
		return nil, types.Wrap(types.IOFailure, "session.UnmarshalSnapshot", "invalid snapshot json", err)
	}
	return FromSnapshot(snap), nil
}
