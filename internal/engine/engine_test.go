package engine

import (
	"testing"

	"github.com/schollz/audioforge/internal/bus"
	"github.com/schollz/audioforge/internal/control"
	"github.com/schollz/audioforge/internal/envelope"
	"github.com/schollz/audioforge/internal/session"
	"github.com/schollz/audioforge/internal/sequencer"
	"github.com/schollz/audioforge/internal/timebase"
	"github.com/schollz/audioforge/internal/track"
	"github.com/schollz/audioforge/internal/types"
	"github.com/schollz/audioforge/internal/voice"
	"github.com/stretchr/testify/assert"
)

const testSampleRate = 48000

func buildScheduler(t *testing.T) *Scheduler {
	tb := timebase.New(testSampleRate, 120, 4, 4)
	sess := session.New(testSampleRate, 120)

	trackID := types.NewID()
	sessTrack := &session.Track{ID: trackID, Name: "synth"}
	sess.AddTrack(sessTrack)

	pattern := session.NewPattern("p1", 4)
	pattern.Steps[0] = session.Step{Active: true, Velocity: 1, Note: 60}
	sess.AddPattern(pattern)

	clip := &session.Clip{ID: types.NewID(), TrackID: trackID, StartBeat: 0, LengthBeats: 4, Kind: types.ClipPattern, PayloadID: pattern.ID}
	assert.NoError(t, sess.AddClip(clip))

	seq := sequencer.New(tb, sess)
	graph := bus.New(testSampleRate)

	ctl := control.NewRing[control.Message](64)
	reports := control.NewRing[control.Report](64)

	sched := NewScheduler(tb, seq, graph, 256, ctl, reports)

	strip := track.NewStrip(trackID, testSampleRate)
	pool := voice.NewPool(8, testSampleRate)
	params := voice.VoiceParams{
		Waveform: types.WaveSawtooth,
		Filter:   voice.FilterParams{Type: types.FilterLowpass, CutoffHz: 2000},
		AmpEnv:   envelope.Params{AttackSec: 0.01, DecaySec: 0.1, Sustain: 0.7, ReleaseSec: 0.3, Peak: 1},
	}
	sched.AddTrack(&TrackRuntime{ID: trackID, Voices: pool, Strip: strip, VoiceParams: params})

	return sched
}

func TestSchedulerRenderBlockProducesAudio(t *testing.T) {
	sched := buildScheduler(t)
	sched.seq.Play()

	outL := make([]float32, 256)
	outR := make([]float32, 256)
	sched.RenderBlock(outL, outR)

	nonZero := false
	for _, s := range outL {
		if s != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)
}

func TestOfflineRenderProducesExpectedLength(t *testing.T) {
	sched := buildScheduler(t)
	out, err := RenderOffline(sched, OfflineRequest{DurationSeconds: 0.1, SampleRate: testSampleRate})
	assert.NoError(t, err)
	assert.Equal(t, int(0.1*testSampleRate)*2, len(out))
}

func TestOfflineRenderRejectsBadDuration(t *testing.T) {
	sched := buildScheduler(t)
	_, err := RenderOffline(sched, OfflineRequest{DurationSeconds: 0, SampleRate: testSampleRate})
	assert.Error(t, err)
}
