package effects

import (
	"testing"

	"github.com/schollz/audioforge/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAddRejectsBeyondCapacity(t *testing.T) {
	c := NewChain()
	for i := 0; i < MaxSlots; i++ {
		_, err := c.Add(NewDistortion(0.5))
		assert.NoError(t, err)
	}
	_, err := c.Add(NewDistortion(0.5))
	assert.Error(t, err)
	kind, ok := types.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, types.CapacityExceeded, kind)
}

func TestBypassedSlotIsNoOp(t *testing.T) {
	c := NewChain()
	slot, _ := c.Add(NewDistortion(1.0))
	c.SetBypass(slot.ID, true)

	buf := []float32{0.1, 0.2, 0.3}
	orig := append([]float32(nil), buf...)
	c.ProcessBlock(buf)
	assert.Equal(t, orig, buf)
}

func TestDryWetZeroIsTransparent(t *testing.T) {
	c := NewChain()
	slot, _ := c.Add(NewDistortion(1.0))
	slot.DryWet = 0

	buf := []float32{0.1, 0.2, 0.3}
	orig := append([]float32(nil), buf...)
	c.ProcessBlock(buf)
	for i := range buf {
		assert.InDelta(t, orig[i], buf[i], 1e-6)
	}
}

func TestReorderRejectsMismatchedSet(t *testing.T) {
	c := NewChain()
	s1, _ := c.Add(NewDistortion(0.1))
	_, _ = c.Add(NewDistortion(0.2))
	err := c.Reorder([]types.ID{s1.ID})
	assert.Error(t, err)
}

func TestReorderAppliesNewOrder(t *testing.T) {
	c := NewChain()
	s1, _ := c.Add(NewDelay(48000, 10, 0))
	s2, _ := c.Add(NewDistortion(0.2))
	err := c.Reorder([]types.ID{s2.ID, s1.ID})
	assert.NoError(t, err)
	assert.Equal(t, s2.ID, c.Slots()[0].ID)
	assert.Equal(t, s1.ID, c.Slots()[1].ID)
}

func TestRemoveDeletesSlot(t *testing.T) {
	c := NewChain()
	s1, _ := c.Add(NewDistortion(0.1))
	assert.NoError(t, c.Remove(s1.ID))
	assert.Equal(t, 0, c.Len())
}

func TestDelayProducesSilenceBeforeBufferFills(t *testing.T) {
	d := NewDelay(48000, 100, 0)
	buf := make([]float32, 10)
	buf[0] = 1
	d.ProcessBlock(buf)
	assert.Equal(t, float32(0), buf[0])
}
