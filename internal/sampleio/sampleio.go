// Package sampleio decodes WAV files into sampleplayer buffers and
// estimates BPM/beat-length metadata for sample-track auto-analysis,
// adapted from the teacher's internal/getbpm (which did the same
// filename-hint-then-duration-guess analysis for its own sample
// browser).
package sampleio

import (
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-audio/wav"

	"github.com/schollz/audioforge/internal/sampleplayer"
	"github.com/schollz/audioforge/internal/types"
)

// Decode reads a WAV file into an immutable, interleaved float32
// sampleplayer.Buffer.
func Decode(path string) (*sampleplayer.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.Wrap(types.IOFailure, "sampleio.Decode", "open failed", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, types.NewError(types.IOFailure, "sampleio.Decode", "not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, types.Wrap(types.IOFailure, "sampleio.Decode", "PCM decode failed", err)
	}

	frames := make([]float32, len(buf.Data))
	maxVal := float64(int(1) << uint(buf.SourceBitDepth-1))
	if buf.SourceBitDepth == 0 {
		maxVal = 32768
	}
	for i, v := range buf.Data {
		frames[i] = float32(float64(v) / maxVal)
	}

	return &sampleplayer.Buffer{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Frames:     frames,
	}, nil
}

// Analysis is the metadata a sample track auto-populates on import
// (SPEC_FULL.md supplemented feature: sample BPM/length analysis).
type Analysis struct {
	DurationSeconds float64
	SampleRate      int
	BPM             float64
	Beats           float64
}

// Analyze estimates BPM and beat-length for a WAV file, first trying to
// parse hints from the filename (e.g. "loop_bpm140_beats16.wav"), then
// falling back to a nearest-fit search over plausible BPM/beat
// combinations against the measured duration — the same two-stage
// strategy as the teacher's GetBPM/guessBPM.
func Analyze(path string, buf *sampleplayer.Buffer) Analysis {
	duration := 0.0
	if buf != nil && buf.SampleRate > 0 {
		duration = float64(buf.FrameCount()) / float64(buf.SampleRate)
	}

	beats, bpm, ok := parseNameHints(path, duration)
	if !ok || bpm < 60 || bpm > 220 || math.Mod(beats, 4) != 0 {
		beats, bpm = guessBPM(duration)
	}

	return Analysis{DurationSeconds: duration, SampleRate: sampleRateOf(buf), BPM: bpm, Beats: beats}
}

func sampleRateOf(buf *sampleplayer.Buffer) int {
	if buf == nil {
		return 0
	}
	return buf.SampleRate
}

var bpmPattern = regexp.MustCompile(`bpm(\d+)`)
var beatsPattern = regexp.MustCompile(`beats(\d+)`)

func parseNameHints(path string, duration float64) (beats, bpm float64, ok bool) {
	name := strings.ToLower(path)
	if m := bpmPattern.FindStringSubmatch(name); len(m) == 2 {
		bpm, _ = strconv.ParseFloat(m[1], 64)
	}
	if bpm == 0 {
		return 0, 0, false
	}
	if m := beatsPattern.FindStringSubmatch(name); len(m) == 2 {
		beats, _ = strconv.ParseFloat(m[1], 64)
	}
	if beats == 0 && duration > 0 {
		beats = math.Round(duration / (60 / bpm))
	}
	return beats, bpm, true
}

// guessBPM searches plausible (beats, bpm) pairs for the closest match
// to the measured duration, preferring power-of-two beat counts on ties.
func guessBPM(duration float64) (beats, bpm float64) {
	type candidate struct {
		diff, bpm, beats float64
	}
	var candidates []candidate
	for beat := 4.0; beat <= 128; beat *= 2 {
		for bp := 60.0; bp <= 200; bp++ {
			diff := math.Abs(duration - beat*60.0/bp)
			candidates = append(candidates, candidate{diff, bp, beat})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].diff < candidates[j].diff
	})
	if len(candidates) == 0 {
		return 0, 120
	}
	return candidates[0].beats, candidates[0].bpm
}
