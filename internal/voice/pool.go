package voice

import (
	"github.com/schollz/audioforge/internal/control"
	"github.com/schollz/audioforge/internal/types"
)

// Pool is the fixed-capacity voice pool (spec.md §4.3). It is owned
// solely by the audio thread (spec.md §5 "Voice pool is owned solely by
// the audio thread") and never allocates after construction: all voices
// are preallocated up front.
type Pool struct {
	voices  []*Voice
	clock   int64 // monotonic sample counter, advanced by the scheduler
	reports *control.Ring[control.Report]
}

// NewPool preallocates capacity voices.
func NewPool(capacity int, sampleRate float64) *Pool {
	p := &Pool{voices: make([]*Voice, capacity)}
	for i := range p.voices {
		p.voices[i] = NewVoice(types.VoiceID(i), sampleRate)
	}
	return p
}

// SetReports binds the reverse control ring a stolen-voice report is
// posted to; nil (the default) disables reporting entirely. The audio
// thread never logs (spec.md §5) — TryPush is the only I/O it performs,
// and a control thread is responsible for draining and logging from it.
func (p *Pool) SetReports(r *control.Ring[control.Report]) { p.reports = r }

// Capacity returns the pool's fixed voice count.
func (p *Pool) Capacity() int { return len(p.voices) }

// ActiveCount returns the number of non-idle voices (spec.md §8 property
// 4: never exceeds capacity by construction).
func (p *Pool) ActiveCount() int {
	n := 0
	for _, v := range p.voices {
		if !v.IsIdle() {
			n++
		}
	}
	return n
}

// Advance moves the pool's internal clock forward by n samples; callers
// use the clock value passed to NoteOn as the "oldest wins" tiebreak key
// for voice stealing (spec.md §4.3).
func (p *Pool) Advance(n int) { p.clock += int64(n) }

func (p *Pool) Clock() int64 { return p.clock }

// NoteOn triggers a new voice for (track, note). If no idle voice exists,
// it steals the voice with the lowest current amp-envelope output,
// tiebreaking on oldest start time (spec.md §4.3, §9 open question 4,
// §8 property 5). Returns the voice that was triggered.
func (p *Pool) NoteOn(owner types.ID, note int, velocity float64, params VoiceParams) *Voice {
	for _, v := range p.voices {
		if v.IsIdle() {
			v.Trigger(owner, note, velocity, p.clock, params)
			return v
		}
	}

	victim := p.voices[0]
	for _, v := range p.voices[1:] {
		if v.AmpLevel() < victim.AmpLevel() {
			victim = v
		} else if v.AmpLevel() == victim.AmpLevel() && v.StartedAt() < victim.StartedAt() {
			victim = v
		}
	}
	if p.reports != nil {
		p.reports.TryPush(control.Report{
			Kind:       control.ReportVoiceActivity,
			TrackID:    owner,
			VoiceID:    int(victim.ID()),
			StolenNote: victim.Note(),
			Note:       note,
		})
	}
	victim.Trigger(owner, note, velocity, p.clock, params)
	return victim
}

// NoteOff releases the most recently triggered active voice matching
// (owner, note) (spec.md §4.3 "note-offs apply to the most recent voice
// of the matching (track, note) pair").
func (p *Pool) NoteOff(owner types.ID, note int) {
	var target *Voice
	for _, v := range p.voices {
		if v.IsIdle() || v.Owner() != owner || v.Note() != note {
			continue
		}
		if target == nil || v.StartedAt() > target.StartedAt() {
			target = v
		}
	}
	if target != nil {
		target.Release()
	}
}

// ReleaseAll releases every active voice owned by owner (used when a
// track is muted/removed).
func (p *Pool) ReleaseAll(owner types.ID) {
	for _, v := range p.voices {
		if !v.IsIdle() && v.Owner() == owner {
			v.Release()
		}
	}
}

// Render additively writes every active voice's output into the block.
func (p *Pool) Render(into []float32, startOffset, length int) {
	for _, v := range p.voices {
		if !v.IsIdle() {
			v.Render(into, startOffset, length)
		}
	}
}
