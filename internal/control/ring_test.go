package control

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	r := NewRing[int](5)
	assert.Equal(t, uint64(7), r.mask) // rounds to 8, mask = 7
}

func TestRingPushPopRoundTrip(t *testing.T) {
	r := NewRing[int](4)
	assert.True(t, r.TryPush(42))
	v, ok := r.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestRingPopOnEmptyFails(t *testing.T) {
	r := NewRing[int](4)
	_, ok := r.TryPop()
	assert.False(t, ok)
}

func TestRingPushFailsWhenFull(t *testing.T) {
	r := NewRing[int](2) // rounds to 2
	assert.True(t, r.TryPush(1))
	assert.True(t, r.TryPush(2))
	assert.False(t, r.TryPush(3))
}

func TestRingPreservesFIFOOrder(t *testing.T) {
	r := NewRing[int](8)
	for i := 0; i < 5; i++ {
		assert.True(t, r.TryPush(i))
	}
	for i := 0; i < 5; i++ {
		v, ok := r.TryPop()
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestPushSpinGivesUpAfterMaxSpins(t *testing.T) {
	r := NewRing[int](2)
	r.TryPush(1)
	r.TryPush(2)
	assert.False(t, r.PushSpin(3, 10))
}

func TestPushSpinSucceedsOnceRoomExists(t *testing.T) {
	r := NewRing[int](2)
	r.TryPush(1)
	r.TryPop()
	assert.True(t, r.PushSpin(2, 10))
}

func TestDrainRespectsBudget(t *testing.T) {
	r := NewRing[int](16)
	for i := 0; i < 10; i++ {
		r.TryPush(i)
	}
	var drained []int
	n := r.Drain(4, func(v int) { drained = append(drained, v) })
	assert.Equal(t, 4, n)
	assert.Equal(t, []int{0, 1, 2, 3}, drained)
}

func TestDrainStopsWhenEmpty(t *testing.T) {
	r := NewRing[int](16)
	r.TryPush(1)
	r.TryPush(2)
	n := r.Drain(100, func(int) {})
	assert.Equal(t, 2, n)
}

func TestRingConcurrentProducersDoNotLoseOrCorruptItems(t *testing.T) {
	r := NewRing[int](1024)
	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !r.TryPush(base + i) {
				}
			}
		}(p * perProducer)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		assert.False(t, seen[v], "duplicate value popped: %d", v)
		seen[v] = true
	}
	assert.Equal(t, producers*perProducer, len(seen))
}
