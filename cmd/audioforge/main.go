// Command audioforge is a demo host exercising the offline render path
// (C14) and WAV encoder (C15) directly, without a UI: it builds a
// minimal session, renders it offline, and writes a WAV file. It
// replaces the teacher's bubbletea TUI entry point, which drove an
// interactive terminal UI that is out of scope for this engine core.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schollz/audioforge/internal/bus"
	"github.com/schollz/audioforge/internal/control"
	"github.com/schollz/audioforge/internal/engine"
	"github.com/schollz/audioforge/internal/envelope"
	"github.com/schollz/audioforge/internal/sequencer"
	"github.com/schollz/audioforge/internal/session"
	"github.com/schollz/audioforge/internal/timebase"
	"github.com/schollz/audioforge/internal/track"
	"github.com/schollz/audioforge/internal/types"
	"github.com/schollz/audioforge/internal/voice"
	"github.com/schollz/audioforge/internal/wavcodec"
)

func main() {
	root := &cobra.Command{
		Use:   "audioforge",
		Short: "Real-time audio engine core demo host",
	}
	root.AddCommand(newRenderCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRenderCommand() *cobra.Command {
	var (
		outPath    string
		duration   float64
		bpm        float64
		sampleRate int
		blockLen   int
		note       int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a one-track demo pattern offline to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := buildDemoScheduler(sampleRate, bpm, blockLen, note)
			if err != nil {
				return err
			}

			samples, err := engine.RenderOffline(sched, engine.OfflineRequest{
				DurationSeconds: duration,
				SampleRate:      sampleRate,
			})
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()

			return wavcodec.Write(f, samples, sampleRate, 2, wavcodec.FormatPCM16)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "render.wav", "output WAV path")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 4.0, "render duration in seconds")
	cmd.Flags().Float64Var(&bpm, "bpm", 120, "session tempo")
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 48000, "output sample rate")
	cmd.Flags().IntVar(&blockLen, "block-len", 256, "scheduler block size, power of two")
	cmd.Flags().IntVar(&note, "note", 60, "MIDI note for the demo pattern")

	return cmd
}

// buildDemoScheduler wires a single synth track playing its root note
// on every beat of a one-bar pattern — enough to exercise C1-C15 end to
// end from a CLI invocation.
func buildDemoScheduler(sampleRate int, bpm float64, blockLen int, note int) (*engine.Scheduler, error) {
	tb := timebase.New(sampleRate, bpm, 4, 4)
	sess := session.New(sampleRate, bpm)

	trackID := types.NewID()
	sess.AddTrack(&session.Track{ID: trackID, Name: "demo-synth", Kind: types.TrackSynth})

	pattern := session.NewPattern("demo", 16)
	for i := 0; i < 16; i += 4 {
		pattern.Steps[i] = session.Step{Active: true, Velocity: 0.9, Note: note}
	}
	sess.AddPattern(pattern)

	clip := &session.Clip{
		ID: types.NewID(), TrackID: trackID, StartBeat: 0, LengthBeats: 4,
		Kind: types.ClipPattern, PayloadID: pattern.ID,
	}
	if err := sess.AddClip(clip); err != nil {
		return nil, err
	}

	seq := sequencer.New(tb, sess)
	graph := bus.New(float64(sampleRate))

	ctl := control.NewRing[control.Message](256)
	reports := control.NewRing[control.Report](256)
	sched := engine.NewScheduler(tb, seq, graph, blockLen, ctl, reports)

	strip := track.NewStrip(trackID, float64(sampleRate))
	pool := voice.NewPool(16, float64(sampleRate))
	sched.AddTrack(&engine.TrackRuntime{
		ID: trackID, Voices: pool, Strip: strip,
		VoiceParams: voice.VoiceParams{
			Waveform: types.WaveSawtooth,
			Filter: voice.FilterParams{
				Type: types.FilterLowpass, CutoffHz: 2000, Resonance: 0.3,
			},
			AmpEnv: envelope.Params{
				AttackSec: 0.01, DecaySec: 0.1, Sustain: 0.7, ReleaseSec: 0.3, Peak: 1,
			},
		},
	})

	return sched, nil
}
