// Package effects implements C9: an ordered chain of up to 10 insert
// effect slots per track, each independently bypassable and
// reorderable. Mutation (add/remove/reorder) happens only at block
// boundaries via a control.Message carrying a Mutate closure, the same
// pattern the scheduler uses for bus graph rewrites, so the audio
// thread never observes a chain in a half-updated state.
package effects

import "github.com/schollz/audioforge/internal/types"

const MaxSlots = 10

// Kind identifies the effect algorithm in a slot. Only a small built-in
// set is modeled; hosts needing more implement Effect themselves.
type Kind int

const (
	KindDelay Kind = iota
	KindChorus
	KindDistortion
)

// Effect is the interface every insert effect implements. ProcessBlock
// runs in place, in the audio thread, and must not allocate.
type Effect interface {
	Kind() Kind
	ProcessBlock(buf []float32)
	Reset()
}

// Slot holds one effect plus its bypass/wet state.
type Slot struct {
	ID      types.ID
	Effect  Effect
	Bypass  bool
	DryWet  float64 // 0=dry, 1=fully wet
}

// Chain is C9, owned by one track strip.
type Chain struct {
	slots []*Slot
}

func NewChain() *Chain {
	return &Chain{slots: make([]*Slot, 0, MaxSlots)}
}

func (c *Chain) Len() int { return len(c.slots) }

// Add appends an effect, returning CapacityExceeded once MaxSlots is
// reached (mirrors eq.Stack.AddBand's capacity guard).
func (c *Chain) Add(e Effect) (*Slot, error) {
	if len(c.slots) >= MaxSlots {
		return nil, types.NewError(types.CapacityExceeded, "effects.Add", "insert chain is full")
	}
	s := &Slot{ID: types.NewID(), Effect: e, DryWet: 1}
	c.slots = append(c.slots, s)
	return s, nil
}

func (c *Chain) Remove(id types.ID) error {
	for i, s := range c.slots {
		if s.ID == id {
			c.slots = append(c.slots[:i], c.slots[i+1:]...)
			return nil
		}
	}
	return types.NewError(types.InvalidState, "effects.Remove", "no such slot")
}

// Reorder applies a new ordering of the current slot IDs wholesale,
// rejecting the call if the set of IDs doesn't match exactly (an unknown
// or repeated ID, or a length mismatch).
func (c *Chain) Reorder(order []types.ID) error {
	if len(order) != len(c.slots) {
		return types.NewError(types.InvalidParameter, "effects.Reorder", "order length mismatch")
	}
	byID := make(map[types.ID]*Slot, len(c.slots))
	for _, s := range c.slots {
		byID[s.ID] = s
	}
	next := make([]*Slot, 0, len(order))
	seen := make(map[types.ID]bool, len(order))
	for _, id := range order {
		s, ok := byID[id]
		if !ok {
			return types.NewError(types.InvalidParameter, "effects.Reorder", "unknown slot id in order")
		}
		if seen[id] {
			return types.NewError(types.InvalidParameter, "effects.Reorder", "duplicate slot id in order")
		}
		seen[id] = true
		next = append(next, s)
	}
	c.slots = next
	return nil
}

func (c *Chain) SetBypass(id types.ID, bypass bool) {
	for _, s := range c.slots {
		if s.ID == id {
			s.Bypass = bypass
			return
		}
	}
}

func (c *Chain) Slots() []*Slot { return c.slots }

// ProcessBlock runs every non-bypassed slot in order, crossfading each
// slot's dry/wet independently so a slot at DryWet=0 is a no-op.
func (c *Chain) ProcessBlock(buf []float32) {
	var scratch []float32
	for _, s := range c.slots {
		if s.Bypass || s.Effect == nil {
			continue
		}
		if s.DryWet >= 1 {
			s.Effect.ProcessBlock(buf)
			continue
		}
		if scratch == nil || len(scratch) != len(buf) {
			scratch = make([]float32, len(buf))
		}
		copy(scratch, buf)
		s.Effect.ProcessBlock(scratch)
		wet := float32(s.DryWet)
		dry := 1 - wet
		for i := range buf {
			buf[i] = buf[i]*dry + scratch[i]*wet
		}
	}
}

func (c *Chain) Reset() {
	for _, s := range c.slots {
		if s.Effect != nil {
			s.Effect.Reset()
		}
	}
}
