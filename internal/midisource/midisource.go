// Package midisource adapts an external MIDI input device into a
// control.Message producer (spec.md §1 "MIDI hardware I/O (treated as a
// timed-event producer)"). It mirrors the open/close device lifecycle
// of the teacher's midiconnector package, inverted from output (note
// dispatch to hardware) to input (note capture from hardware).
package midisource

import (
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/schollz/audioforge/internal/control"
	"github.com/schollz/audioforge/internal/types"
)

// Source listens on one MIDI input port and pushes note/transport
// events onto a control ring as they arrive, exactly like any other
// control-thread producer (spec.md §5).
type Source struct {
	mu      sync.Mutex
	in      drivers.In
	stopFn  func()
	trackID types.ID
	ring    *control.Ring[control.Message]
}

// Open finds an input port by fuzzy name match (same truncate-then-match
// strategy as midiconnector.filterName) and binds events to trackID.
func Open(name string, trackID types.ID, ring *control.Ring[control.Message]) (*Source, error) {
	in, err := findInPort(name)
	if err != nil {
		return nil, types.Wrap(types.IOFailure, "midisource.Open", "no matching MIDI input port", err)
	}
	if err := in.Open(); err != nil {
		return nil, types.Wrap(types.IOFailure, "midisource.Open", "failed to open MIDI input", err)
	}
	return &Source{in: in, trackID: trackID, ring: ring}, nil
}

func findInPort(name string) (drivers.In, error) {
	ports := midi.GetInPorts()
	words := strings.Fields(name)
	if len(words) > 3 {
		words = words[:3]
	}
	truncated := strings.Join(words, " ")

	for _, p := range ports {
		if strings.EqualFold(p.String(), truncated) {
			return p, nil
		}
	}
	for _, p := range ports {
		if strings.HasPrefix(strings.ToLower(p.String()), strings.ToLower(truncated)) {
			return p, nil
		}
	}
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), strings.ToLower(truncated)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input matching %q", name)
}

// Listen starts the callback-driven read loop; it runs until Close is
// called. Each incoming message is translated and pushed to the control
// ring with TryPush (a full ring drops the event rather than blocking,
// same backpressure policy as any other producer).
func (s *Source) Listen() error {
	stopFn, err := midi.ListenTo(s.in, func(msg midi.Message, timestampMS int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			s.ring.TryPush(control.Message{
				Kind: control.MsgNoteOn, TrackID: s.trackID,
				Note: int(key), Velocity: float64(vel) / 127.0,
				TimeOffsetBeats: control.NowOffset,
			})
		case msg.GetNoteOff(&ch, &key, &vel):
			s.ring.TryPush(control.Message{
				Kind: control.MsgNoteOff, TrackID: s.trackID,
				Note: int(key), TimeOffsetBeats: control.NowOffset,
			})
		}
	})
	if err != nil {
		return types.Wrap(types.IOFailure, "midisource.Listen", "failed to start MIDI listener", err)
	}
	s.mu.Lock()
	s.stopFn = stopFn
	s.mu.Unlock()
	return nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopFn != nil {
		s.stopFn()
	}
	if s.in != nil {
		return s.in.Close()
	}
	return nil
}
