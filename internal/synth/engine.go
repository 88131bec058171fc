package synth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sonalabs/sona-core/internal/config"
	"github.com/sonalabs/sona-core/internal/modeldetect"
)

type state int

const (
	stateUninitialized state = iota
	stateInitialized
	stateReleased
)

// InitOptions parameterize one Initialize call. The three scale pointers
// tune acoustic variance and speaking rate for kinds that support them
// (vits-family); nil leaves the backend default in place and other kinds
// ignore them.
type InitOptions struct {
	ModelDir    string
	ModelType   string // "" or "auto" runs rule evaluation
	NumThreads  int
	Debug       bool
	NoiseScale  *float64
	NoiseScaleW *float64
	LengthScale *float64
}

// Engine owns a loaded inference session and exposes blocking and streaming
// generation. Instances serialize all state-changing calls through an
// internal lock, so overlapping calls from different goroutines queue
// instead of racing.
type Engine struct {
	mu      sync.Mutex
	cfg     config.SynthConfig
	log     *slog.Logger
	state   state
	backend Backend
	kind    modeldetect.TTSKind
}

func New(cfg config.SynthConfig, log *slog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: log.With(slog.String("component", "synth-engine")),
	}
}

// Initialize detects (or forces) the model kind under opts.ModelDir, loads
// an inference backend, and returns the full detection result including
// non-selected candidates for diagnostics. A second Initialize releases the
// prior session first, so re-initialization replaces the loaded model
// instead of erroring.
func (e *Engine) Initialize(opts InitOptions) (modeldetect.TTSResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.NumThreads < 1 {
		return modeldetect.TTSResult{}, fmt.Errorf("%w: num threads %d", ErrInvalidArgument, opts.NumThreads)
	}

	if e.state == stateInitialized {
		e.closeBackendLocked()
	}

	detection := modeldetect.DetectTTS(opts.ModelDir, opts.ModelType)
	if !detection.OK {
		e.state = stateUninitialized
		return detection, fmt.Errorf("%w: %s", ErrInitialization, detection.Error)
	}

	backend, err := newBackend(e.cfg, opts, detection)
	if err != nil {
		e.state = stateUninitialized
		return detection, fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	e.backend = backend
	e.kind = detection.SelectedKind
	e.state = stateInitialized
	e.log.Info("synthesis engine initialized",
		slog.String("kind", string(detection.SelectedKind)),
		slog.String("model_dir", opts.ModelDir),
		slog.Int("sample_rate", backend.SampleRate()),
		slog.Int("num_speakers", backend.NumSpeakers()))
	return detection, nil
}

// Generate blocks the calling goroutine until synthesis completes and
// returns the full audio at the engine's native sample rate.
func (e *Engine) Generate(text string, sid int, speed float32) (AudioResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkGenerateLocked(sid, speed); err != nil {
		return AudioResult{}, err
	}

	var samples []float32
	err := e.backend.Generate(context.Background(), Request{Text: text, SpeakerID: sid, Speed: speed},
		func(chunk []float32, _ float32) bool {
			samples = append(samples, chunk...)
			return true
		})
	if err != nil {
		return AudioResult{}, fmt.Errorf("generate: %w", err)
	}
	return AudioResult{Samples: samples, SampleRate: e.backend.SampleRate()}, nil
}

// GenerateStream invokes fn for each chunk as audio becomes available.
// It returns true when every callback returned a positive value through
// completion, false when a callback cancelled the run. Cancellation is
// cooperative: it is checked between chunks, never mid-chunk.
func (e *Engine) GenerateStream(text string, sid int, speed float32, fn StreamFunc) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkGenerateLocked(sid, speed); err != nil {
		return false, err
	}

	cancelled := false
	lastProgress := float32(0)
	err := e.backend.Generate(context.Background(), Request{Text: text, SpeakerID: sid, Speed: speed},
		func(chunk []float32, progress float32) bool {
			if progress < lastProgress {
				progress = lastProgress
			}
			lastProgress = progress
			if fn(chunk, progress) <= 0 {
				cancelled = true
				return false
			}
			return true
		})
	if err != nil {
		return false, fmt.Errorf("generate stream: %w", err)
	}
	return !cancelled, nil
}

func (e *Engine) checkGenerateLocked(sid int, speed float32) error {
	if e.state != stateInitialized {
		return ErrNotInitialized
	}
	if speakers := e.backend.NumSpeakers(); sid < 0 || sid >= speakers {
		return fmt.Errorf("%w: speaker id %d out of range [0,%d)", ErrInvalidArgument, sid, speakers)
	}
	if speed <= 0 {
		return fmt.Errorf("%w: speed %v must be positive", ErrInvalidArgument, speed)
	}
	return nil
}

// SampleRate returns the loaded engine's native rate, or 0 when no engine
// is loaded.
func (e *Engine) SampleRate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateInitialized {
		return 0
	}
	return e.backend.SampleRate()
}

// NumSpeakers returns the loaded model's speaker count, or 0 when no engine
// is loaded.
func (e *Engine) NumSpeakers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateInitialized {
		return 0
	}
	return e.backend.NumSpeakers()
}

// Kind returns the loaded model's architecture kind, or TTSUnknown when no
// engine is loaded.
func (e *Engine) Kind() modeldetect.TTSKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateInitialized {
		return modeldetect.TTSUnknown
	}
	return e.kind
}

// Initialized reports whether the engine currently holds a loaded session.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateInitialized
}

// Release frees the loaded session. It is idempotent and safe without a
// prior Initialize; generation after Release fails with ErrNotInitialized.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeBackendLocked()
	e.kind = modeldetect.TTSUnknown
	e.state = stateReleased
}

func (e *Engine) closeBackendLocked() {
	if e.backend == nil {
		return
	}
	if err := e.backend.Close(); err != nil {
		e.log.Warn("backend close failed", slog.String("error", err.Error()))
	}
	e.backend = nil
}
