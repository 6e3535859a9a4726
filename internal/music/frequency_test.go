package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteToFrequencyA4(t *testing.T) {
	assert.InDelta(t, 440.0, NoteToFrequency(69), 1e-9)
}

func TestFrequencyToNoteRoundTrip(t *testing.T) {
	for _, n := range []int{21, 60, 69, 96, 108} {
		hz := NoteToFrequency(n)
		assert.Equal(t, n, FrequencyToNote(hz))
	}
}

func TestApplyCentsOctaveUp(t *testing.T) {
	assert.InDelta(t, 880.0, ApplyCents(440, 1200), 1e-6)
}
