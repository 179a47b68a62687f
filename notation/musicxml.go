package notation

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"melody-transcriber/core/models"
	"melody-transcriber/core/pitch"
	"melody-transcriber/core/rhythm"
)

// divisions per quarter note in the MusicXML output; 4 lets a
// sixteenth note be the smallest integral duration.
const xmlDivisions = 4

type xmlScore struct {
	XMLName  xml.Name    `xml:"score-partwise"`
	Version  string      `xml:"version,attr"`
	PartList xmlPartList `xml:"part-list"`
	Parts    []xmlPart   `xml:"part"`
}

type xmlPartList struct {
	ScoreParts []xmlScorePart `xml:"score-part"`
}

type xmlScorePart struct {
	ID       string `xml:"id,attr"`
	PartName string `xml:"part-name"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number     int            `xml:"number,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
	Direction  *xmlDirection  `xml:"direction,omitempty"`
	Notes      []xmlNote      `xml:"note"`
}

type xmlAttributes struct {
	Divisions int     `xml:"divisions"`
	Time      xmlTime `xml:"time"`
	Clef      xmlClef `xml:"clef"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlClef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type xmlDirection struct {
	Sound xmlSound `xml:"sound"`
}

type xmlSound struct {
	Tempo float64 `xml:"tempo,attr"`
}

type xmlNote struct {
	Pitch    xmlPitch `xml:"pitch"`
	Duration int      `xml:"duration"`
	Type     string   `xml:"type"`
}

type xmlPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

var durationTypeNames = map[float64]string{
	4.0:  "whole",
	2.0:  "half",
	1.0:  "quarter",
	0.5:  "eighth",
	0.25: "16th",
}

// RenderMusicXML serializes the note list into a score-partwise
// MusicXML document. Durations take the snapped-standard strategy:
// each measured beat length maps to the nearest standard note value.
func RenderMusicXML(notes []models.QuantizedNote, bpm float64) ([]byte, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("cannot render MusicXML with bpm %v", bpm)
	}

	var xmlNotes []xmlNote
	for _, note := range notes {
		p, ok := pitchFromName(pitch.NoteName(note.PitchHz))
		if !ok {
			continue
		}

		quarterLen := rhythm.SnapToStandard(note.DurationBeat)
		xmlNotes = append(xmlNotes, xmlNote{
			Pitch:    p,
			Duration: int(quarterLen * xmlDivisions),
			Type:     durationTypeNames[quarterLen],
		})
	}

	score := xmlScore{
		Version: "3.1",
		PartList: xmlPartList{
			ScoreParts: []xmlScorePart{{ID: "P1", PartName: "Melody"}},
		},
		Parts: []xmlPart{{
			ID: "P1",
			Measures: []xmlMeasure{{
				Number: 1,
				Attributes: &xmlAttributes{
					Divisions: xmlDivisions,
					Time:      xmlTime{Beats: 4, BeatType: 4},
					Clef:      xmlClef{Sign: "G", Line: 2},
				},
				Direction: &xmlDirection{Sound: xmlSound{Tempo: bpm}},
				Notes:     xmlNotes,
			}},
		}},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(score); err != nil {
		return nil, fmt.Errorf("failed to encode MusicXML: %w", err)
	}
	return buf.Bytes(), nil
}

// pitchFromName splits a sharp-spelled note name like "C#4" into
// MusicXML step/alter/octave parts.
func pitchFromName(name string) (xmlPitch, bool) {
	if name == pitch.NoteNotApplicable || len(name) < 2 {
		return xmlPitch{}, false
	}

	step := string(name[0])
	rest := name[1:]
	alter := 0
	if strings.HasPrefix(rest, "#") {
		alter = 1
		rest = rest[1:]
	}

	var octave int
	if _, err := fmt.Sscanf(rest, "%d", &octave); err != nil {
		return xmlPitch{}, false
	}
	return xmlPitch{Step: step, Alter: alter, Octave: octave}, true
}
