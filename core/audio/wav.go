package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WAV decoding errors.
var (
	ErrNotWAV         = errors.New("not a RIFF/WAVE stream")
	ErrUnsupportedWAV = errors.New("unsupported WAV encoding")
)

// DecodeWAV reads a 16-bit PCM WAV stream into a mono waveform.
// Multi-channel audio is downmixed by averaging channels.
func DecodeWAV(r io.Reader) (*Waveform, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		numChannels   int
		sampleRate    int
		bitsPerSample int
		haveFmt       bool
	)

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("WAV stream has no data chunk: %w", ErrNotWAV)
			}
			return nil, fmt.Errorf("failed to read WAV chunk header: %w", err)
		}
		chunkID := string(chunk[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(chunk[4:8]))

		switch chunkID {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			audioFormat := int(binary.LittleEndian.Uint16(body[0:2]))
			numChannels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if audioFormat != 1 {
				return nil, fmt.Errorf("%w: audio format %d (want PCM)", ErrUnsupportedWAV, audioFormat)
			}
			if bitsPerSample != 16 {
				return nil, fmt.Errorf("%w: %d bits per sample (want 16)", ErrUnsupportedWAV, bitsPerSample)
			}
			if numChannels < 1 || sampleRate <= 0 {
				return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedWAV, numChannels, sampleRate)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("WAV data chunk before fmt chunk: %w", ErrNotWAV)
			}
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("failed to read data chunk: %w", err)
			}
			return decodePCM16(body, numChannels, sampleRate), nil

		default:
			// Skip LIST, fact and other metadata chunks.
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return nil, fmt.Errorf("failed to skip %q chunk: %w", chunkID, err)
			}
		}
	}
}

// DecodeWAVFile decodes a 16-bit PCM WAV file from disk.
func DecodeWAVFile(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

func decodePCM16(body []byte, numChannels, sampleRate int) *Waveform {
	frameSize := 2 * numChannels
	numFrames := len(body) / frameSize
	samples := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		var sum float64
		for c := 0; c < numChannels; c++ {
			off := i*frameSize + c*2
			v := int16(binary.LittleEndian.Uint16(body[off : off+2]))
			sum += float64(v) / 32768.0
		}
		samples[i] = sum / float64(numChannels)
	}

	return &Waveform{Samples: samples, SampleRate: sampleRate}
}
