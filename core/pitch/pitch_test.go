package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteNameKnownFrequencies(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("A4", NoteName(440.0))
	assert.Equal("A3", NoteName(220.0))
	assert.Equal("A5", NoteName(880.0))
	assert.Equal("C4", NoteName(261.63))
	assert.Equal("E2", NoteName(82.41))
	assert.Equal("G#4", NoteName(415.30))
}

func TestNoteNameSentinelBelowRange(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(NoteNotApplicable, NoteName(0))
	assert.Equal(NoteNotApplicable, NoteName(-5))

	c0 := 440.0 * math.Pow(2, -4.75)
	assert.Equal(NoteNotApplicable, NoteName(c0*0.99))
	assert.Equal(NoteNotApplicable, NoteName(c0))
}

func TestMidiReferencePoints(t *testing.T) {
	assert := assert.New(t)

	m, err := Midi(440.0)
	assert.NoError(err)
	assert.InDelta(69.0, m, 1e-9)

	m, err = Midi(880.0)
	assert.NoError(err)
	assert.InDelta(81.0, m, 1e-9)

	_, err = Midi(0)
	assert.ErrorIs(err, ErrNonPositiveFrequency)
	_, err = Midi(-1)
	assert.ErrorIs(err, ErrNonPositiveFrequency)
}

// A note name derived from any audible frequency should agree with the
// fractional MIDI number to within half a semitone.
func TestNoteNameRoundTripsThroughMidi(t *testing.T) {
	assert := assert.New(t)

	c0 := 440.0 * math.Pow(2, -4.75)
	for f := c0 * 1.01; f < 4000; f *= 1.037 {
		name := NoteName(f)
		assert.NotEqual(NoteNotApplicable, name)

		m, err := Midi(f)
		assert.NoError(err)

		// MIDI 12 is C0, so the semitone count above C0 is m-12.
		h := math.Round(12 * math.Log2(f/c0))
		assert.InDelta(h, m-12, 0.5, "frequency %f", f)
	}
}
