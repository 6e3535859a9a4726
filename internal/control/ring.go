// Package control implements the lock-free message rings that separate
// the control plane (UI, MIDI, OSC, command sources) from the audio plane
// (the real-time scheduler), per spec.md §5.
//
// Both directions use the same bounded MPMC ring (Dmitry Vyukov's
// algorithm), which is safe for the engine's actual usage pattern of many
// producers and a single consumer: control threads enqueue messages,
// the audio thread drains them at the start of every block; the audio
// thread enqueues reports, control threads poll them.
package control

import (
	"sync/atomic"
)

type cell[T any] struct {
	seq   atomic.Uint64
	value T
}

// Ring is a bounded, lock-free, multi-producer multi-consumer queue.
// Capacity is rounded up to the next power of two.
type Ring[T any] struct {
	mask  uint64
	cells []cell[T]
	head  atomic.Uint64 // next slot to claim for enqueue
	tail  atomic.Uint64 // next slot to claim for dequeue
}

// NewRing constructs a ring with at least the requested capacity.
func NewRing[T any](capacity int) *Ring[T] {
	n := nextPow2(capacity)
	r := &Ring[T]{
		mask:  uint64(n - 1),
		cells: make([]cell[T], n),
	}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r
}

func nextPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// TryPush attempts a non-blocking enqueue. It returns false when the ring
// is full — callers on a control thread treat that as backpressure
// (spec.md §5, §7 BackpressureDropped). The audio thread's report pushes
// (voice.Pool.NoteOn, the scheduler's meter reports) discard the result,
// so a report pushed onto a full ring is dropped without being counted.
func (r *Ring[T]) TryPush(v T) bool {
	for {
		pos := r.head.Load()
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if r.head.CompareAndSwap(pos, pos+1) {
				c.value = v
				c.seq.Store(pos + 1)
				return true
			}
		case diff < 0:
			return false // full
		default:
			// another producer raced ahead; retry
		}
	}
}

// PushSpin retries TryPush up to maxSpins times before giving up, matching
// the "bounded spin then fail-fast" contract in spec.md §5.
func (r *Ring[T]) PushSpin(v T, maxSpins int) bool {
	for i := 0; i < maxSpins; i++ {
		if r.TryPush(v) {
			return true
		}
	}
	return false
}

// TryPop attempts a non-blocking dequeue, returning ok=false when empty.
func (r *Ring[T]) TryPop() (v T, ok bool) {
	for {
		pos := r.tail.Load()
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if r.tail.CompareAndSwap(pos, pos+1) {
				v = c.value
				c.seq.Store(pos + r.mask + 1)
				return v, true
			}
		case diff < 0:
			return v, false // empty
		default:
			// another consumer raced ahead; retry
		}
	}
}

// Drain pops everything currently available, up to budget items, calling
// fn for each. It returns the number drained. This is what the scheduler
// calls once per block (spec.md §4.13 step 1); budget bounds worst-case
// time spent off the audio deadline.
func (r *Ring[T]) Drain(budget int, fn func(T)) int {
	n := 0
	for n < budget {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		fn(v)
		n++
	}
	return n
}
