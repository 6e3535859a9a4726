// Package oscsource adapts an OSC listener into a control.Message
// producer for parameter automation from an external controller or
// companion app (spec.md §1 external event sources). The server runs on
// its own goroutine; handlers only ever call TryPush, never block.
package oscsource

import (
	"strings"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/audioforge/internal/control"
	"github.com/schollz/audioforge/internal/types"
)

// Source listens for OSC messages of the form
// /track/<id>/param/<name> f <value> and /track/<id>/note <on|off> i i
// and translates them into control.Message values.
type Source struct {
	server *osc.Server
	ring   *control.Ring[control.Message]
}

// New builds a Source bound to addr (e.g. "127.0.0.1:9000") and ring.
func New(addr string, ring *control.Ring[control.Message]) *Source {
	d := osc.NewStandardDispatcher()
	s := &Source{ring: ring}

	_ = d.AddMsgHandler("*", func(msg *osc.Message) {
		s.handle(msg)
	})

	s.server = &osc.Server{Addr: addr, Dispatcher: d}
	return s
}

// ListenAndServe blocks serving OSC until the caller cancels the
// underlying connection (mirrors go-osc's own blocking server model).
func (s *Source) ListenAndServe() error {
	if err := s.server.ListenAndServe(); err != nil {
		return types.Wrap(types.IOFailure, "oscsource.ListenAndServe", "OSC server failed", err)
	}
	return nil
}

func (s *Source) handle(msg *osc.Message) {
	parts := strings.Split(strings.Trim(msg.Address, "/"), "/")
	if len(parts) < 3 || parts[0] != "track" {
		return
	}
	trackID := types.ID(parts[1])

	switch parts[2] {
	case "param":
		if len(parts) < 4 || len(msg.Arguments) < 1 {
			return
		}
		value, ok := msg.Arguments[0].(float32)
		if !ok {
			return
		}
		s.ring.TryPush(control.Message{
			Kind: control.MsgParamSet, TrackID: trackID,
			ParamPath: parts[3], ParamValue: float64(value),
			TimeOffsetBeats: control.NowOffset,
		})
	case "note":
		if len(msg.Arguments) < 2 {
			return
		}
		note, ok1 := msg.Arguments[0].(int32)
		vel, ok2 := msg.Arguments[1].(int32)
		if !ok1 || !ok2 {
			return
		}
		kind := control.MsgNoteOn
		if vel == 0 {
			kind = control.MsgNoteOff
		}
		s.ring.TryPush(control.Message{
			Kind: kind, TrackID: trackID, Note: int(note),
			Velocity: float64(vel) / 127.0, TimeOffsetBeats: control.NowOffset,
		})
	}
}
