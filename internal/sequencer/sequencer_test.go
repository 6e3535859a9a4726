package sequencer

import (
	"testing"

	"github.com/schollz/audioforge/internal/session"
	"github.com/schollz/audioforge/internal/timebase"
	"github.com/schollz/audioforge/internal/types"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T) (*Sequencer, *session.Session, types.ID) {
	tb := timebase.New(48000, 120, 4, 4)
	sess := session.New(48000, 120)
	track := &session.Track{ID: types.NewID(), Name: "t1"}
	sess.AddTrack(track)

	pattern := session.NewPattern("p1", 4)
	pattern.Steps[0] = session.Step{Active: true, Velocity: 1, Note: 60}
	sess.AddPattern(pattern)

	clip := &session.Clip{ID: types.NewID(), TrackID: track.ID, StartBeat: 0, LengthBeats: 4, Kind: types.ClipPattern, PayloadID: pattern.ID}
	assert.NoError(t, sess.AddClip(clip))

	seq := New(tb, sess)
	return seq, sess, track.ID
}

func TestNoEventsWhenStopped(t *testing.T) {
	seq, _, _ := setup(t)
	events := seq.NextEvents(0, 512)
	assert.Empty(t, events)
}

func TestEmitsNoteOnAtBlockStart(t *testing.T) {
	seq, _, trackID := setup(t)
	seq.Play()
	events := seq.NextEvents(0, 512)
	assert.NotEmpty(t, events)
	assert.Equal(t, EventNoteOn, events[0].Kind)
	assert.Equal(t, trackID, events[0].TrackID)
	assert.Equal(t, 0, events[0].SampleOffset)
}

func TestNoEventsOutsideClipWindow(t *testing.T) {
	seq, _, _ := setup(t)
	seq.Play()
	// far beyond the clip's 4-beat length at 120bpm, 48kHz
	events := seq.NextEvents(10_000_000, 512)
	assert.Empty(t, events)
}

func TestStopPreventsEvents(t *testing.T) {
	seq, _, _ := setup(t)
	seq.Play()
	seq.Stop()
	events := seq.NextEvents(0, 512)
	assert.Empty(t, events)
}

func TestAutomationClipEmitsInterpolatedEvent(t *testing.T) {
	seq, sess, _ := setup(t)

	automationTrack := types.NewID()
	sess.AddTrack(&session.Track{ID: automationTrack, Name: "t2"})

	curve := &session.AutomationCurve{
		ID: types.NewID(), ParamName: "pan",
		Points: []session.AutomationPoint{{Beat: 0, Value: -1}, {Beat: 4, Value: 1}},
	}
	sess.AddAutomation(curve)
	clip := &session.Clip{
		ID: types.NewID(), TrackID: automationTrack, StartBeat: 0, LengthBeats: 4,
		Kind: types.ClipAutomation, PayloadID: curve.ID,
	}
	assert.NoError(t, sess.AddClip(clip))

	seq.Play()
	// one beat at 120bpm/48kHz is 24000 samples, a quarter of the way
	// along the four-beat curve from -1 to 1, so it should read -0.5.
	events := seq.NextEvents(24000, 512)

	var found *Event
	for i := range events {
		if events[i].Kind == EventAutomation {
			found = &events[i]
		}
	}
	assert.NotNil(t, found)
	assert.Equal(t, "pan", found.ParamName)
	assert.InDelta(t, -0.5, found.ParamValue, 1e-6)
}

func TestAutomationClampsBeforeFirstAndAfterLastPoint(t *testing.T) {
	points := []session.AutomationPoint{{Beat: 1, Value: 0.25}, {Beat: 2, Value: 0.75}}
	assert.Equal(t, 0.25, interpolateCurve(points, 0))
	assert.Equal(t, 0.75, interpolateCurve(points, 5))
}
