package synth

import (
	"context"
	"math"

	"github.com/sonalabs/sona-core/internal/config"
	"github.com/sonalabs/sona-core/internal/modeldetect"
)

// mockBackend synthesizes a fixed tone deterministically from the request.
// It stands in for a real inference session in tests and development setups
// without model weights.
type mockBackend struct {
	sampleRate  int
	numSpeakers int
	chunkSize   int
}

func newMockBackend(cfg config.SynthConfig, detection modeldetect.TTSResult) *mockBackend {
	speakers := 1
	if detection.Paths.Voices != "" {
		// Voice-bank models are multi-speaker.
		speakers = 4
	}
	chunk := cfg.SampleRate * cfg.ChunkDurationMS / 1000
	if chunk < 1 {
		chunk = 1
	}
	return &mockBackend{
		sampleRate:  cfg.SampleRate,
		numSpeakers: speakers,
		chunkSize:   chunk,
	}
}

func (m *mockBackend) Generate(ctx context.Context, req Request, emit EmitFunc) error {
	// Roughly 60ms of audio per input character, scaled by speed.
	total := int(float64(len(req.Text)) * 0.06 * float64(m.sampleRate) / float64(req.Speed))
	if total < 1 {
		total = 1
	}

	freq := 220.0 * float64(req.SpeakerID+1)
	emitted := 0
	for emitted < total {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := m.chunkSize
		if remaining := total - emitted; n > remaining {
			n = remaining
		}
		chunk := make([]float32, n)
		for i := range chunk {
			t := float64(emitted+i) / float64(m.sampleRate)
			chunk[i] = float32(0.3 * math.Sin(2*math.Pi*freq*t))
		}
		emitted += n
		if !emit(chunk, float32(emitted)/float32(total)) {
			return nil
		}
	}
	return nil
}

func (m *mockBackend) SampleRate() int  { return m.sampleRate }
func (m *mockBackend) NumSpeakers() int { return m.numSpeakers }
func (m *mockBackend) Close() error     { return nil }
