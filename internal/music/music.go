// Package music holds small note-naming and pitch-math helpers, adapted
// from the teacher tracker's note formatting utility and generalized with
// MIDI<->frequency helpers. The engine's voice-steal report logging uses
// MidiToNoteName; the voice package computes note frequencies with its
// own noteToFreq and does not call these helpers.
package music

import (
	"fmt"
	"math"
	"strings"
)

var noteNames = []string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// MidiToNoteName converts a MIDI note number (0-127) to a 3-character
// name such as "c-4" or "f#1", used for voice-steal diagnostics. Negative
// octaves use a leading minus for natural notes to keep a fixed width.
func MidiToNoteName(midiNote int) string {
	if midiNote < 0 || midiNote > 127 {
		return "---"
	}
	octave := (midiNote / 12) - 1
	name := noteNames[midiNote%12]
	if strings.Contains(name, "#") {
		if octave < 0 {
			return fmt.Sprintf("%s%d", name, -octave)
		}
		return fmt.Sprintf("%s%d", name, octave)
	}
	if octave < 0 {
		return fmt.Sprintf("%s-%d", name, -octave)
	}
	return fmt.Sprintf("%s-%d", name, octave)
}

// NoteToFrequency converts a MIDI note number to Hz, A4 (note 69) = 440Hz.
func NoteToFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// FrequencyToNote converts Hz back to the nearest MIDI note number.
func FrequencyToNote(hz float64) int {
	if hz <= 0 {
		return 0
	}
	return int(math.Round(69 + 12*math.Log2(hz/440)))
}

// ApplyCents detunes a frequency by the given cents: f = f0 * 2^(cents/1200).
func ApplyCents(hz, cents float64) float64 {
	return hz * math.Pow(2, cents/1200)
}
