package synth

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sonalabs/sona-core/internal/config"
	"github.com/sonalabs/sona-core/internal/modeldetect"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func mockConfig() config.SynthConfig {
	cfg := config.Default().Synth
	cfg.Enabled = true
	return cfg
}

func vitsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"vits-piper-en_US.onnx", "tokens.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func kokoroDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"kokoro-v1.0.onnx", "voices.bin", "tokens.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func initialized(t *testing.T, dir string) *Engine {
	t.Helper()
	engine := New(mockConfig(), newLogger())
	if _, err := engine.Initialize(InitOptions{ModelDir: dir, ModelType: "auto", NumThreads: 2}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(engine.Release)
	return engine
}

func TestGenerateBeforeInitialize(t *testing.T) {
	engine := New(mockConfig(), newLogger())

	result, err := engine.Generate("hello", 0, 1.0)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if len(result.Samples) != 0 {
		t.Fatal("expected zero samples on failure")
	}
	if engine.SampleRate() != 0 || engine.NumSpeakers() != 0 {
		t.Fatal("expected zero sample rate and speakers before initialize")
	}
}

func TestInitializeReturnsDetection(t *testing.T) {
	engine := New(mockConfig(), newLogger())
	t.Cleanup(engine.Release)

	detection, err := engine.Initialize(InitOptions{ModelDir: vitsDir(t), NumThreads: 2})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !detection.OK || detection.SelectedKind != modeldetect.TTSVits {
		t.Fatalf("expected vits detection, got %+v", detection)
	}
	if !engine.Initialized() {
		t.Fatal("expected engine initialized")
	}
	if engine.SampleRate() != 22050 {
		t.Fatalf("expected native sample rate, got %d", engine.SampleRate())
	}
}

func TestInitializeFailsOnEmptyDirectory(t *testing.T) {
	engine := New(mockConfig(), newLogger())

	detection, err := engine.Initialize(InitOptions{ModelDir: t.TempDir(), NumThreads: 2})
	if !errors.Is(err, ErrInitialization) {
		t.Fatalf("expected ErrInitialization, got %v", err)
	}
	if detection.OK {
		t.Fatal("expected failed detection in result")
	}
	if engine.Initialized() {
		t.Fatal("engine must stay uninitialized")
	}
}

func TestInitializeRejectsBadThreadCount(t *testing.T) {
	engine := New(mockConfig(), newLogger())
	if _, err := engine.Initialize(InitOptions{ModelDir: vitsDir(t), NumThreads: 0}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestGenerateProducesAudio(t *testing.T) {
	engine := initialized(t, vitsDir(t))

	result, err := engine.Generate("hello world", 0, 1.0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Samples) == 0 {
		t.Fatal("expected samples")
	}
	if result.SampleRate != engine.SampleRate() {
		t.Fatalf("sample rate mismatch: %d vs %d", result.SampleRate, engine.SampleRate())
	}
	for _, s := range result.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %v out of range", s)
		}
	}
}

func TestGenerateSpeedShortensAudio(t *testing.T) {
	engine := initialized(t, vitsDir(t))

	slow, err := engine.Generate("the same sentence", 0, 1.0)
	if err != nil {
		t.Fatalf("generate slow: %v", err)
	}
	fast, err := engine.Generate("the same sentence", 0, 2.0)
	if err != nil {
		t.Fatalf("generate fast: %v", err)
	}
	if len(fast.Samples) >= len(slow.Samples) {
		t.Fatalf("speed 2.0 should produce fewer samples: %d vs %d", len(fast.Samples), len(slow.Samples))
	}
}

func TestGenerateSpeakerValidation(t *testing.T) {
	engine := initialized(t, kokoroDir(t))

	if engine.NumSpeakers() != 4 {
		t.Fatalf("expected 4 speakers for voice-bank model, got %d", engine.NumSpeakers())
	}
	if _, err := engine.Generate("hello", 3, 1.0); err != nil {
		t.Fatalf("sid 3 should be valid: %v", err)
	}
	if _, err := engine.Generate("hello", 4, 1.0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for sid 4, got %v", err)
	}
	if _, err := engine.Generate("hello", -1, 1.0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for sid -1, got %v", err)
	}
}

func TestGenerateStreamContract(t *testing.T) {
	engine := initialized(t, vitsDir(t))

	var progresses []float32
	completed, err := engine.GenerateStream("a longer piece of text to synthesize in chunks", 0, 1.0,
		func(samples []float32, progress float32) int {
			if len(samples) == 0 {
				t.Fatal("empty chunk delivered")
			}
			progresses = append(progresses, progress)
			return 1
		})
	if err != nil {
		t.Fatalf("generate stream: %v", err)
	}
	if !completed {
		t.Fatal("expected completed run")
	}
	if len(progresses) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(progresses))
	}
	for i := 1; i < len(progresses); i++ {
		if progresses[i] < progresses[i-1] {
			t.Fatalf("progress decreased: %v", progresses)
		}
	}
	if last := progresses[len(progresses)-1]; last != 1.0 {
		t.Fatalf("final progress must be exactly 1.0, got %v", last)
	}
}

func TestGenerateStreamCancellation(t *testing.T) {
	engine := initialized(t, vitsDir(t))

	calls := 0
	completed, err := engine.GenerateStream("a longer piece of text to synthesize in chunks", 0, 1.0,
		func(_ []float32, _ float32) int {
			calls++
			if calls == 2 {
				return 0
			}
			return 1
		})
	if err != nil {
		t.Fatalf("generate stream: %v", err)
	}
	if completed {
		t.Fatal("cancelled run must report completed=false")
	}
	if calls != 2 {
		t.Fatalf("no callback may fire after cancellation, got %d calls", calls)
	}
}

func TestReleaseLifecycle(t *testing.T) {
	engine := New(mockConfig(), newLogger())

	// Safe without a prior Initialize, and twice in a row.
	engine.Release()
	engine.Release()

	if _, err := engine.Initialize(InitOptions{ModelDir: vitsDir(t), NumThreads: 1}); err != nil {
		t.Fatalf("initialize after release: %v", err)
	}
	engine.Release()

	if engine.SampleRate() != 0 {
		t.Fatal("sample rate after release must be 0")
	}
	if _, err := engine.Generate("hello", 0, 1.0); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized after release, got %v", err)
	}
}

func TestReinitializeReplacesModel(t *testing.T) {
	engine := New(mockConfig(), newLogger())
	t.Cleanup(engine.Release)

	if _, err := engine.Initialize(InitOptions{ModelDir: vitsDir(t), NumThreads: 1}); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	detection, err := engine.Initialize(InitOptions{ModelDir: kokoroDir(t), NumThreads: 1})
	if err != nil {
		t.Fatalf("re-initialize: %v", err)
	}
	if detection.SelectedKind != modeldetect.TTSKokoro {
		t.Fatalf("expected kokoro after re-initialize, got %s", detection.SelectedKind)
	}
	if engine.NumSpeakers() != 4 {
		t.Fatalf("expected replaced model's speaker count, got %d", engine.NumSpeakers())
	}
}
