// Package notation serializes quantized note lists into exchange
// formats: Standard MIDI File and MusicXML.
package notation

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"melody-transcriber/core/models"
	"melody-transcriber/core/pitch"
)

const (
	ticksPerQuarter = 960
	noteVelocity    = 90
	midiChannel     = 0
)

type midiEvent struct {
	tick uint32
	off  bool
	key  uint8
}

// RenderSMF serializes the note list into a single-track Standard
// MIDI File at the given tempo. Notes with unpitchable frequencies
// are skipped.
func RenderSMF(notes []models.QuantizedNote, bpm float64) ([]byte, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("cannot render SMF with bpm %v", bpm)
	}

	var events []midiEvent
	for _, note := range notes {
		m, err := pitch.Midi(note.PitchHz)
		if err != nil {
			continue
		}
		key := math.Round(m)
		if key < 0 || key > 127 {
			continue
		}

		startTick := uint32(math.Round(note.StartTimeBeat * ticksPerQuarter))
		durTicks := uint32(math.Round(note.DurationBeat * ticksPerQuarter))
		if durTicks == 0 {
			durTicks = 1
		}
		events = append(events,
			midiEvent{tick: startTick, key: uint8(key)},
			midiEvent{tick: startTick + durTicks, off: true, key: uint8(key)},
		)
	}

	// Note-offs sort before note-ons at the same tick so back-to-back
	// notes never overlap.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track
	track.Add(0, smf.MetaTempo(bpm))

	var lastTick uint32
	for _, ev := range events {
		delta := ev.tick - lastTick
		lastTick = ev.tick
		if ev.off {
			track.Add(delta, midi.NoteOff(midiChannel, ev.key))
		} else {
			track.Add(delta, midi.NoteOn(midiChannel, ev.key, noteVelocity))
		}
	}
	track.Close(0)

	s.Add(track)

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write SMF: %w", err)
	}
	return buf.Bytes(), nil
}
