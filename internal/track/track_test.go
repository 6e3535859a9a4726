package track

import (
	"math"
	"testing"

	"github.com/schollz/audioforge/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPanGainsCenterIsEqualPower(t *testing.T) {
	gL, gR := PanGains(0)
	assert.InDelta(t, gL, gR, 1e-9)
	assert.InDelta(t, 1.0, gL*gL+gR*gR, 1e-9)
}

func TestPanGainsHardLeft(t *testing.T) {
	gL, gR := PanGains(-1)
	assert.InDelta(t, 1, gL, 1e-6)
	assert.InDelta(t, 0, gR, 1e-6)
}

func TestPanGainsHardRight(t *testing.T) {
	gL, gR := PanGains(1)
	assert.InDelta(t, 0, gL, 1e-6)
	assert.InDelta(t, 1, gR, 1e-6)
}

func TestMuteSilencesOutput(t *testing.T) {
	s := NewStrip(types.NewID(), 48000)
	st := s.State()
	st.Muted = true
	s.SetState(st)

	in := []float32{1, 1, 1, 1}
	outL := make([]float32, 4)
	outR := make([]float32, 4)
	s.Process(in, outL, outR, SoloState{}, nil)
	for i := range outL {
		assert.Equal(t, float32(0), outL[i])
		assert.Equal(t, float32(0), outR[i])
	}
}

func TestSoloSilencesNonSoloedTracks(t *testing.T) {
	s := NewStrip(types.NewID(), 48000)
	in := []float32{1, 1}
	outL := make([]float32, 2)
	outR := make([]float32, 2)
	s.Process(in, outL, outR, SoloState{AnySoloed: true, ThisSoloed: false}, nil)
	assert.Equal(t, float32(0), outL[0])
}

func TestSoloedTrackPassesThrough(t *testing.T) {
	s := NewStrip(types.NewID(), 48000)
	in := []float32{1, 1}
	outL := make([]float32, 2)
	outR := make([]float32, 2)
	s.Process(in, outL, outR, SoloState{AnySoloed: true, ThisSoloed: true}, nil)
	assert.NotEqual(t, float32(0), outL[0])
}

func TestSendTapsPrePanPostGain(t *testing.T) {
	s := NewStrip(types.NewID(), 48000)
	busID := types.NewID()
	st := s.State()
	st.Sends = []Send{{BusID: busID, GainDB: 0}}
	s.SetState(st)

	in := []float32{1, 1}
	outL := make([]float32, 2)
	outR := make([]float32, 2)
	sendBuf := map[types.ID][]float32{busID: make([]float32, 2)}
	s.Process(in, outL, outR, SoloState{}, sendBuf)
	assert.InDelta(t, 1, sendBuf[busID][0], 1e-6)
}

func TestPreAndPostGainApplyInDB(t *testing.T) {
	s := NewStrip(types.NewID(), 48000)
	st := s.State()
	st.PreGainDB = 20 // x10
	s.SetState(st)

	in := []float32{0.1, 0.1}
	outL := make([]float32, 2)
	outR := make([]float32, 2)
	s.Process(in, outL, outR, SoloState{}, nil)
	total := math.Sqrt(float64(outL[0]*outL[0] + outR[0]*outR[0]))
	assert.InDelta(t, 1.0, total, 1e-3)
}
