package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGraphHasMasterAtZero(t *testing.T) {
	g := New(48000)
	assert.Equal(t, MasterIndex, 0)
	assert.Equal(t, "master", g.Master().Name)
}

func TestAddBusSucceeds(t *testing.T) {
	g := New(48000)
	ix, err := g.AddBus("drums-bus", MasterIndex)
	assert.NoError(t, err)
	assert.Greater(t, ix, MasterIndex)
}

func TestReparentDetectsCycle(t *testing.T) {
	g := New(48000)
	a, _ := g.AddBus("a", MasterIndex)
	b, _ := g.AddBus("b", a)
	err := g.Reparent(a, b)
	assert.Error(t, err)
}

func TestRenderSumsChildIntoParent(t *testing.T) {
	g := New(48000)
	a, _ := g.AddBus("a", MasterIndex)

	n := 16
	inL := map[int][]float32{a: make([]float32, n)}
	inR := map[int][]float32{a: make([]float32, n)}
	for i := range inL[a] {
		inL[a][i] = 0.5
		inR[a][i] = 0.5
	}
	outL := make([]float32, n)
	outR := make([]float32, n)
	err := g.Render(inL, inR, outL, outR)
	assert.NoError(t, err)
	assert.Greater(t, outL[0], float32(0))
}

func TestAddBusRejectsInvalidParent(t *testing.T) {
	g := New(48000)
	_, err := g.AddBus("bad", 99)
	assert.Error(t, err)
}
