package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// encodeWAV builds a minimal 16-bit PCM WAV stream for tests.
func encodeWAV(samples []int16, numChannels, sampleRate int) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*numChannels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func TestDecodeWAVMono(t *testing.T) {
	assert := assert.New(t)

	raw := []int16{0, 16384, -16384, 32767}
	w, err := DecodeWAV(bytes.NewReader(encodeWAV(raw, 1, 8000)))
	assert.NoError(err)
	assert.Equal(8000, w.SampleRate)
	assert.Len(w.Samples, 4)
	assert.InDelta(0.0, w.Samples[0], 1e-9)
	assert.InDelta(0.5, w.Samples[1], 1e-9)
	assert.InDelta(-0.5, w.Samples[2], 1e-9)
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	assert := assert.New(t)

	// Interleaved L/R frames: (16384, 0) averages to 0.25.
	raw := []int16{16384, 0, 16384, 0}
	w, err := DecodeWAV(bytes.NewReader(encodeWAV(raw, 2, 44100)))
	assert.NoError(err)
	assert.Len(w.Samples, 2)
	assert.InDelta(0.25, w.Samples[0], 1e-9)
	assert.InDelta(0.25, w.Samples[1], 1e-9)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	assert := assert.New(t)

	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not audio")))
	assert.ErrorIs(err, ErrNotWAV)
}

func TestWaveformDuration(t *testing.T) {
	w := &Waveform{Samples: make([]float64, 22050), SampleRate: 22050}
	assert.InDelta(t, 1.0, w.Duration(), 1e-9)
}

func TestWaveformSliceClamps(t *testing.T) {
	assert := assert.New(t)

	w := &Waveform{Samples: make([]float64, 1000), SampleRate: 100}
	assert.Len(w.Slice(1.0, 4.0).Samples, 300)
	assert.Len(w.Slice(-1.0, 1.0).Samples, 100)
	assert.Len(w.Slice(9.0, 99.0).Samples, 100)
	assert.Empty(w.Slice(50.0, 60.0).Samples)
}

func TestWaveformWithin(t *testing.T) {
	assert := assert.New(t)

	w := &Waveform{Samples: make([]float64, 1000), SampleRate: 100}
	assert.True(w.Within(0.02, 0.15))
	assert.False(w.Within(9.9, 10.2))
	assert.False(w.Within(-0.1, 0.1))
}

func TestWaveformDownsample(t *testing.T) {
	assert := assert.New(t)

	samples := make([]float64, 10000)
	for i := range samples {
		samples[i] = math.Sin(float64(i))
	}
	w := &Waveform{Samples: samples, SampleRate: 1000}

	preview := w.Downsample(2000)
	assert.GreaterOrEqual(len(preview), 2000)
	assert.LessOrEqual(len(preview), 2500)

	short := &Waveform{Samples: samples[:100], SampleRate: 1000}
	assert.Len(short.Downsample(2000), 100)
}
