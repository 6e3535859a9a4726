// Package sequencer implements C2: sample-accurate note-on/note-off and
// automation event emission from patterns, arrangement clips, and the
// loop region, driven by the shared internal/timebase clock.
package sequencer

import (
	"sort"

	"github.com/schollz/audioforge/internal/session"
	"github.com/schollz/audioforge/internal/timebase"
	"github.com/schollz/audioforge/internal/types"
)

// EventKind distinguishes the events next_events can emit.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventAutomation
)

// Event is one sample-accurate instruction for the scheduler to apply
// to a track or voice within the current block.
type Event struct {
	Kind           EventKind
	TrackID        types.ID
	Note           int
	Velocity       float64
	SampleOffset   int // offset within the block, [0, block_len)
	ParamName      string
	ParamValue     float64
}

// Sequencer is C2, bound to one session and one timebase.
type Sequencer struct {
	tb      *timebase.TimeBase
	sess    *session.Session
	playing bool
}

func New(tb *timebase.TimeBase, sess *session.Session) *Sequencer {
	return &Sequencer{tb: tb, sess: sess}
}

func (s *Sequencer) Play()  { s.playing = true }
func (s *Sequencer) Stop()  { s.playing = false }
func (s *Sequencer) Playing() bool { return s.playing }

func (s *Sequencer) Seek(beats float64) {
	if beats < 0 {
		beats = 0
	}
	s.tb.Seek(beats)
}

func (s *Sequencer) SetLoop(startBeat, endBeat float64, enabled bool) {
	s.sess.Loop = session.LoopRegion{StartBeat: startBeat, EndBeat: endBeat, Enabled: enabled}
}

// NextEvents walks every clip intersecting the block window and every
// step whose absolute sample position falls inside it, emitting
// NoteOn/NoteOff events ordered per spec.md §4.2 (note-offs before
// note-ons at the same sample index). If the loop region would be
// crossed mid-block, the block is split at the wrap point and both
// halves are walked with positions folded back into [0, block_len).
func (s *Sequencer) NextEvents(blockStartSamples int64, blockLen int) []Event {
	if !s.playing {
		return nil
	}

	loop := s.sess.Loop
	if loop.Enabled && loop.Valid() {
		wrapSample := s.tb.BeatsToSamples(loop.EndBeat)
		if blockStartSamples < wrapSample && blockStartSamples+int64(blockLen) > wrapSample {
			firstLen := int(wrapSample - blockStartSamples)
			first := s.collectEvents(blockStartSamples, firstLen, 0)

			loopStartSample := s.tb.BeatsToSamples(loop.StartBeat)
			second := s.collectEvents(loopStartSample, blockLen-firstLen, firstLen)
			return mergeOrdered(first, second)
		}
	}

	return s.collectEvents(blockStartSamples, blockLen, 0)
}

// collectEvents emits events for [windowStart, windowStart+length) and
// re-expresses each event's sample offset relative to outputOffsetBase
// (used when a block has been split at a loop wrap).
func (s *Sequencer) collectEvents(windowStart int64, length int, outputOffsetBase int) []Event {
	if length <= 0 {
		return nil
	}
	var events []Event
	windowEnd := windowStart + int64(length)

	for _, clip := range s.sess.Clips {
		if clip.Muted {
			continue
		}
		clipStartSample := s.tb.BeatsToSamples(clip.StartBeat)
		clipEndSample := s.tb.BeatsToSamples(clip.StartBeat + clip.LengthBeats)
		if clipEndSample <= windowStart || clipStartSample >= windowEnd {
			continue
		}

		if clip.Kind == types.ClipAutomation {
			if ev := s.automationEvent(clip, windowStart, outputOffsetBase); ev != nil {
				events = append(events, *ev)
			}
			continue
		}
		if clip.Kind != types.ClipPattern {
			continue
		}

		pattern, ok := s.sess.Patterns[clip.PayloadID]
		if !ok || pattern.StepCount == 0 {
			continue
		}
		stepBeats := s.tb.StepBeats()
		stepSamples := s.tb.BeatsToSamples(stepBeats)
		if stepSamples <= 0 {
			continue
		}

		for i, step := range pattern.Steps {
			if !step.Active {
				continue
			}
			stepStartSample := clipStartSample + int64(i)*stepSamples
			offsetSamples := int64(step.OffsetFrac * float64(stepSamples))
			absSample := stepStartSample + offsetSamples
			if absSample < windowStart || absSample >= windowEnd {
				continue
			}
			relOffset := outputOffsetBase + int(absSample-windowStart)

			events = append(events, Event{
				Kind: EventNoteOn, TrackID: clip.TrackID, Note: step.Note,
				Velocity: step.Velocity, SampleOffset: relOffset,
			})
			noteOffSample := absSample + stepSamples
			if noteOffSample >= windowStart && noteOffSample < windowEnd {
				events = append(events, Event{
					Kind: EventNoteOff, TrackID: clip.TrackID, Note: step.Note,
					SampleOffset: outputOffsetBase + int(noteOffSample-windowStart),
				})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].SampleOffset != events[j].SampleOffset {
			return events[i].SampleOffset < events[j].SampleOffset
		}
		return events[i].Kind == EventNoteOff && events[j].Kind != EventNoteOff
	})
	return events
}

// automationEvent evaluates clip's curve at the beat position of
// windowStart and emits one Automation event for it (spec.md §4.2
// "Automation events are interpolated at block boundaries" — once per
// block per active clip, not resampled every frame).
func (s *Sequencer) automationEvent(clip *session.Clip, windowStart int64, outputOffsetBase int) *Event {
	curve, ok := s.sess.Automations[clip.PayloadID]
	if !ok || len(curve.Points) == 0 {
		return nil
	}
	beat := s.tb.SamplesToBeats(int(windowStart))
	return &Event{
		Kind: EventAutomation, TrackID: clip.TrackID,
		ParamName: curve.ParamName, ParamValue: interpolateCurve(curve.Points, beat),
		SampleOffset: outputOffsetBase,
	}
}

// interpolateCurve linearly interpolates between the two knots bracketing
// beat, clamping to the first/last knot's value outside the curve's range.
func interpolateCurve(points []session.AutomationPoint, beat float64) float64 {
	if beat <= points[0].Beat {
		return points[0].Value
	}
	last := points[len(points)-1]
	if beat >= last.Beat {
		return last.Value
	}
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		if beat >= a.Beat && beat <= b.Beat {
			if b.Beat == a.Beat {
				return b.Value
			}
			frac := (beat - a.Beat) / (b.Beat - a.Beat)
			return a.Value + (b.Value-a.Value)*frac
		}
	}
	return last.Value
}

func mergeOrdered(first, second []Event) []Event {
	out := make([]Event, 0, len(first)+len(second))
	out = append(out, first...)
	out = append(out, second...)
	return out
}
