package synth

import (
	"context"
	"errors"
)

// AudioResult carries generated audio at the engine's native sample rate.
// Samples are 32-bit floats in [-1.0, 1.0].
type AudioResult struct {
	Samples    []float32
	SampleRate int
}

// StreamFunc receives audio chunks in temporal order together with a
// non-decreasing progress value in [0,1]; progress is exactly 1.0 on the
// final chunk. Returning a value <= 0 stops streaming before the next chunk.
type StreamFunc func(samples []float32, progress float32) int

var (
	// ErrNotInitialized is returned when generation is requested before
	// Initialize or after Release.
	ErrNotInitialized = errors.New("synthesis engine not initialized")
	// ErrInvalidArgument flags out-of-range speaker ids or non-positive
	// speeds.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInitialization wraps inference backend construction failures.
	ErrInitialization = errors.New("synthesis engine initialization failed")
)

// Request is one synthesis job handed to a backend.
type Request struct {
	Text      string
	SpeakerID int
	Speed     float32
}

// EmitFunc delivers one chunk from a backend; returning false asks the
// backend to stop before producing more audio.
type EmitFunc func(samples []float32, progress float32) bool

// Backend abstracts the inference engine that turns text into samples. The
// engine owns exactly one backend at a time and serializes all calls into
// it.
type Backend interface {
	Generate(ctx context.Context, req Request, emit EmitFunc) error
	SampleRate() int
	NumSpeakers() int
	Close() error
}
