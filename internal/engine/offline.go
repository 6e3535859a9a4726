package engine

import (
	"log"
	"math"

	"github.com/schollz/audioforge/internal/control"
	"github.com/schollz/audioforge/internal/music"
	"github.com/schollz/audioforge/internal/types"
)

// OfflineRequest parameterizes C14 (spec.md §4.14).
type OfflineRequest struct {
	DurationSeconds float64
	SampleRate      int
	StartBeats      float64
	EndBeats        float64 // not consulted: the render length is always DurationSeconds
}

// RenderOffline drives sched for ceil(duration*sr/block_len) blocks from
// a given start position and returns an interleaved stereo float32
// buffer. The scheduler and its session must already be isolated
// (dedicated offline session/instance) per spec.md §4.14 so a
// concurrent real-time render is never disturbed.
func RenderOffline(sched *Scheduler, req OfflineRequest) ([]float32, error) {
	if req.DurationSeconds <= 0 || req.SampleRate <= 0 {
		return nil, types.NewError(types.InvalidParameter, "engine.RenderOffline", "duration and sample rate must be positive")
	}

	sched.seq.Seek(req.StartBeats)
	sched.seq.Play()

	totalFrames := int(math.Ceil(req.DurationSeconds * float64(req.SampleRate)))
	blockLen := sched.blockLen
	numBlocks := (totalFrames + blockLen - 1) / blockLen

	out := make([]float32, 0, totalFrames*2)
	outL := make([]float32, blockLen)
	outR := make([]float32, blockLen)

	framesWritten := 0
	for b := 0; b < numBlocks; b++ {
		sched.RenderBlock(outL, outR)
		drainOfflineReports(sched)

		n := blockLen
		if framesWritten+n > totalFrames {
			n = totalFrames - framesWritten
		}
		for i := 0; i < n; i++ {
			out = append(out, outL[i], outR[i])
		}
		framesWritten += n
	}

	return out, nil
}

// drainOfflineReports polls the audio thread's reverse ring and logs
// whatever it finds, standing in for the dedicated control thread a
// realtime host would run (spec.md §5, §6): the audio thread itself
// never logs, so voice-steal notices only become visible once something
// off that thread drains and reports them.
func drainOfflineReports(sched *Scheduler) {
	sched.DrainReports(DrainBudget, func(r control.Report) {
		switch r.Kind {
		case control.ReportVoiceActivity:
			log.Printf("voice steal: track=%s voice=%d stole note %s to play %s",
				r.TrackID, r.VoiceID, music.MidiToNoteName(r.StolenNote), music.MidiToNoteName(r.Note))
		case control.ReportDSPFault:
			log.Printf("dsp fault: track=%s counter=%d", r.TrackID, r.FaultCounter)
		case control.ReportBackpressure:
			log.Printf("control ring backpressure: track=%s", r.TrackID)
		}
	})
}
