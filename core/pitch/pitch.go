package pitch

import (
	"errors"
	"fmt"
	"math"
)

// NoteNotApplicable is returned for frequencies with no note name
// (non-positive or below C0).
const NoteNotApplicable = "N/A"

// c0 is the frequency of C0 relative to A4 = 440 Hz.
var c0 = 440.0 * math.Pow(2, -4.75)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ErrNonPositiveFrequency is returned by Midi for frequencies <= 0.
var ErrNonPositiveFrequency = errors.New("frequency must be positive")

// NoteName converts a frequency in Hz to a sharp-spelled note name
// with octave, e.g. 440 -> "A4". Frequencies at or below C0 map to
// NoteNotApplicable.
func NoteName(frequency float64) string {
	if frequency <= 0 || frequency <= c0 {
		return NoteNotApplicable
	}

	// Semitone count above C0, rounded half away from zero. The
	// rounding mode decides which side of an octave boundary a
	// borderline frequency lands on.
	h := int(math.Round(12 * math.Log2(frequency/c0)))
	octave := h / 12

	return fmt.Sprintf("%s%d", noteNames[h%12], octave)
}

// Midi converts a frequency in Hz to a fractional MIDI note number
// (69 = A4 = 440 Hz).
func Midi(frequency float64) (float64, error) {
	if frequency <= 0 {
		return 0, ErrNonPositiveFrequency
	}
	return 69 + 12*math.Log2(frequency/440.0), nil
}
