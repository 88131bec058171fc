package synth

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	samples := make([]float32, 4410)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/22050))
	}
	source := AudioResult{Samples: samples, SampleRate: 22050}

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := SaveWAV(path, source); err != nil {
		t.Fatalf("save wav: %v", err)
	}

	decoded, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("load wav: %v", err)
	}
	if len(decoded.Samples) != len(source.Samples) {
		t.Fatalf("sample count mismatch: %d vs %d", len(decoded.Samples), len(source.Samples))
	}
	if decoded.SampleRate != source.SampleRate {
		t.Fatalf("sample rate mismatch: %d vs %d", decoded.SampleRate, source.SampleRate)
	}
	for i := range decoded.Samples {
		if diff := math.Abs(float64(decoded.Samples[i] - source.Samples[i])); diff > 1.0/32767*2 {
			t.Fatalf("sample %d drifted beyond 16-bit quantization: %v", i, diff)
		}
	}
}

func TestWriteWAVClampsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clamped.wav")
	if err := SaveWAV(path, AudioResult{Samples: []float32{1.5, -1.5, 0}, SampleRate: 16000}); err != nil {
		t.Fatalf("save wav: %v", err)
	}
	decoded, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("load wav: %v", err)
	}
	if decoded.Samples[0] < 0.99 || decoded.Samples[1] > -0.99 {
		t.Fatalf("expected clamped peaks, got %v", decoded.Samples[:2])
	}
}

func TestSaveWAVRejectsBadRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := SaveWAV(path, AudioResult{Samples: []float32{0}, SampleRate: 0}); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}
