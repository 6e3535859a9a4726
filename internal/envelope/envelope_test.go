package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestADSRAttackReachesPeak(t *testing.T) {
	e := New(1000, Params{AttackSec: 0.01, DecaySec: 0.01, Sustain: 0.5, ReleaseSec: 0.01, Peak: 1})
	e.Trigger()
	v := e.Advance(10) // exactly AttackSec
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestADSRDecayToSustain(t *testing.T) {
	e := New(1000, Params{AttackSec: 0.001, DecaySec: 0.01, Sustain: 0.5, ReleaseSec: 0.01, Peak: 1})
	e.Trigger()
	e.Advance(1)  // past attack
	e.Advance(10) // past decay
	assert.InDelta(t, 0.5, e.Value(), 1e-6)
}

func TestReleaseReachesIdle(t *testing.T) {
	e := New(1000, Params{AttackSec: 0.001, DecaySec: 0.001, Sustain: 0.5, ReleaseSec: 0.01, Peak: 1})
	e.Trigger()
	e.Advance(5)
	e.TriggerRelease()
	e.Advance(20)
	assert.True(t, e.Idle())
	assert.Equal(t, 0.0, e.Value())
}

func TestExponentialNeverHitsExactZeroMidRamp(t *testing.T) {
	e := New(1000, Params{AttackSec: 0.01, DecaySec: 0.01, Sustain: 0.5, ReleaseSec: 0.05, Peak: 1, Shape: ShapeExponential})
	e.Trigger()
	e.Advance(20)
	e.TriggerRelease()
	for i := 0; i < 10; i++ {
		e.Next()
		if !e.Idle() {
			assert.NotEqual(t, 0.0, e.Value())
		}
	}
}

func TestTriggerReleaseCancelsFromCurrentValue(t *testing.T) {
	e := New(1000, Params{AttackSec: 1, DecaySec: 1, Sustain: 1, ReleaseSec: 0.1, Peak: 1})
	e.Trigger()
	e.Advance(100) // mid-attack, well below peak
	mid := e.Value()
	assert.Less(t, mid, 1.0)
	e.TriggerRelease()
	assert.InDelta(t, mid, e.Value(), 1e-9, "release should start from the value at the moment of release, not from peak")
}

func TestCustomPiecewise(t *testing.T) {
	e := New(1000, Params{Shape: ShapeCustom, Custom: []Point{{0, 0}, {0.01, 1}, {0.02, 0.2}}})
	e.Trigger()
	v := e.Advance(10)
	assert.InDelta(t, 1.0, v, 1e-6)
	v = e.Advance(10)
	assert.InDelta(t, 0.2, v, 1e-6)
}
