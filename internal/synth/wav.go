package synth

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV serializes samples as a mono 16-bit PCM WAV stream. Float
// samples are clamped to [-1, 1] before quantization.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	buffer := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buffer.Data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// SaveWAV writes an AudioResult to path as a standard PCM WAV container.
func SaveWAV(path string, result AudioResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer file.Close()
	return WriteWAV(file, result.Samples, result.SampleRate)
}

// LoadWAV reads a mono PCM WAV file back into an AudioResult. Values round
// trip through 16-bit quantization; count and rate are exact.
func LoadWAV(path string) (AudioResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return AudioResult{}, fmt.Errorf("open wav file: %w", err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	buffer, err := dec.FullPCMBuffer()
	if err != nil {
		return AudioResult{}, fmt.Errorf("decode wav: %w", err)
	}

	samples := make([]float32, len(buffer.Data))
	for i, v := range buffer.Data {
		samples[i] = float32(v) / 32767
	}
	return AudioResult{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}
