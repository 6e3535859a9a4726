package eq

import (
	"testing"

	"github.com/schollz/audioforge/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestLowpassDCPasses(t *testing.T) {
	b := NewBand(48000, BandParams{Type: types.EQLowpass, FrequencyHz: 1000, Q: 0.707, Enabled: true})
	assert.InDelta(t, 0, b.MagnitudeDB(1), 0.1)
}

func TestHighpassDCBlocks(t *testing.T) {
	b := NewBand(48000, BandParams{Type: types.EQHighpass, FrequencyHz: 1000, Q: 0.707, Enabled: true})
	assert.Less(t, b.MagnitudeDB(1), -40.0)
}

func TestPeakingAtCenterMatchesGain(t *testing.T) {
	b := NewBand(48000, BandParams{Type: types.EQPeaking, FrequencyHz: 1000, GainDB: 6, Q: 1, Enabled: true})
	assert.InDelta(t, 6.0, b.MagnitudeDB(1000), 0.05)
}

func TestLowShelfExtremes(t *testing.T) {
	b := NewBand(48000, BandParams{Type: types.EQLowShelf, FrequencyHz: 200, GainDB: 12, SlopeDbOct: 12, Enabled: true})
	assert.InDelta(t, 12.0, b.MagnitudeDB(1), 0.05)
	assert.InDelta(t, 0.0, b.MagnitudeDB(20000), 0.5)
}

func TestDisabledBandIsUnity(t *testing.T) {
	b := NewBand(48000, BandParams{Type: types.EQPeaking, FrequencyHz: 1000, GainDB: 20, Q: 1, Enabled: false})
	out := b.Process(0.5)
	assert.InDelta(t, 0.5, out, 1e-9)
}

func TestBandwidthSetsExclusiveQ(t *testing.T) {
	b := NewBand(48000, BandParams{Type: types.EQPeaking, FrequencyHz: 1000, UseBandwidth: true, BandwidthHz: 500, Enabled: true})
	assert.InDelta(t, 2.0, b.Params().Q, 1e-9)
}

func TestStateSurvivesParamUpdate(t *testing.T) {
	b := NewBand(48000, BandParams{Type: types.EQLowpass, FrequencyHz: 1000, Q: 0.707, Enabled: true})
	b.Process(1.0)
	b.Process(0.5)
	x1Before := b.x1
	b.SetParams(BandParams{Type: types.EQLowpass, FrequencyHz: 2000, Q: 0.707, Enabled: true})
	assert.Equal(t, x1Before, b.x1, "z^-1 state must be preserved across coefficient updates")
}
