package modeldetect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestDetectSTTTransducer(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "encoder-epoch-99.onnx", "decoder-epoch-99.onnx", "joiner-epoch-99.onnx", "tokens.txt")

	result := DetectSTT(dir, STTOptions{})
	if !result.OK {
		t.Fatalf("expected ok, got error %q", result.Error)
	}
	if result.SelectedKind != STTTransducer {
		t.Fatalf("expected transducer, got %s", result.SelectedKind)
	}
	if !result.TokensRequired {
		t.Fatal("expected tokens required")
	}
	for _, path := range []string{result.Paths.Encoder, result.Paths.Decoder, result.Paths.Joiner, result.Paths.Tokens} {
		if path == "" {
			t.Fatal("expected all transducer paths populated")
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("resolved path does not exist: %v", err)
		}
	}
	if result.Paths.ParaformerModel != "" || result.Paths.CTCModel != "" {
		t.Fatal("slots for other kinds must stay empty")
	}
}

func TestDetectSTTParaformer(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "paraformer-zh.onnx", "tokens.txt")

	result := DetectSTT(dir, STTOptions{})
	if !result.OK || result.SelectedKind != STTParaformer {
		t.Fatalf("expected paraformer, got %s (err %q)", result.SelectedKind, result.Error)
	}
	if result.Paths.ParaformerModel == "" {
		t.Fatal("expected paraformer model path")
	}
}

func TestDetectSTTWhisperWithoutJoiner(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "tiny.en-encoder.onnx", "tiny.en-decoder.onnx", "tokens.txt")

	result := DetectSTT(dir, STTOptions{})
	if !result.OK || result.SelectedKind != STTWhisper {
		t.Fatalf("expected whisper, got %s (err %q)", result.SelectedKind, result.Error)
	}
	if result.Paths.WhisperEncoder == "" || result.Paths.WhisperDecoder == "" {
		t.Fatal("expected whisper encoder/decoder paths")
	}
	if result.Paths.Encoder != "" {
		t.Fatal("transducer encoder slot must stay empty for whisper")
	}
}

func TestDetectSTTFunASRNanoSkipsTokens(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "encoder_adaptor.onnx", "llm.onnx", "embedding.onnx", "tokenizer.json")

	result := DetectSTT(dir, STTOptions{})
	if !result.OK || result.SelectedKind != STTFunASRNano {
		t.Fatalf("expected funasr-nano, got %s (err %q)", result.SelectedKind, result.Error)
	}
	if result.TokensRequired {
		t.Fatal("funasr-nano carries its own tokenizer")
	}
	if result.Paths.FunASRTokenizer == "" {
		t.Fatal("expected funasr tokenizer path")
	}
}

func TestDetectSTTEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	result := DetectSTT(dir, STTOptions{})
	if result.OK {
		t.Fatal("expected detection failure for empty directory")
	}
	if len(result.DetectedModels) != 0 {
		t.Fatalf("expected no detected models, got %v", result.DetectedModels)
	}
	if result.SelectedKind != STTUnknown {
		t.Fatalf("expected unknown kind, got %s", result.SelectedKind)
	}
}

func TestDetectSTTMissingDirectory(t *testing.T) {
	result := DetectSTT(filepath.Join(t.TempDir(), "nope"), STTOptions{})
	if result.OK {
		t.Fatal("expected failure for missing directory")
	}
	if !strings.Contains(result.Error, "not found or unreadable") {
		t.Fatalf("expected not-found error, got %q", result.Error)
	}
}

func TestDetectSTTPrecedenceIsStable(t *testing.T) {
	// encoder+decoder+joiner+tokens satisfies both transducer and whisper.
	dir := t.TempDir()
	writeFiles(t, dir, "encoder.onnx", "decoder.onnx", "joiner.onnx", "tokens.txt")

	for i := 0; i < 5; i++ {
		result := DetectSTT(dir, STTOptions{})
		if !result.OK || result.SelectedKind != STTTransducer {
			t.Fatalf("run %d: expected transducer, got %s", i, result.SelectedKind)
		}
		if len(result.DetectedModels) != 2 {
			t.Fatalf("run %d: expected transducer and whisper candidates, got %v", i, result.DetectedModels)
		}
		if result.DetectedModels[0].Type != string(STTTransducer) || result.DetectedModels[1].Type != string(STTWhisper) {
			t.Fatalf("run %d: candidates out of precedence order: %v", i, result.DetectedModels)
		}
	}
}

func TestDetectSTTPreferInt8(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "paraformer.onnx", "paraformer.int8.onnx", "tokens.txt")

	plain := DetectSTT(dir, STTOptions{})
	if !plain.OK || strings.Contains(plain.Paths.ParaformerModel, "int8") {
		t.Fatalf("expected plain file without preferInt8, got %q", plain.Paths.ParaformerModel)
	}

	quant := DetectSTT(dir, STTOptions{PreferInt8: true})
	if !quant.OK || !strings.Contains(quant.Paths.ParaformerModel, "int8") {
		t.Fatalf("expected int8 file with preferInt8, got %q", quant.Paths.ParaformerModel)
	}
}

func TestDetectSTTInt8OnlyFallback(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "paraformer.int8.onnx", "tokens.txt")

	result := DetectSTT(dir, STTOptions{})
	if !result.OK || !strings.Contains(result.Paths.ParaformerModel, "int8") {
		t.Fatalf("expected int8 fallback when it is the only candidate, got %q", result.Paths.ParaformerModel)
	}
}

func TestDetectSTTForcedKindFailsLoud(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "paraformer.onnx", "tokens.txt")

	result := DetectSTT(dir, STTOptions{ModelType: "transducer"})
	if result.OK {
		t.Fatal("expected failure when forced kind has no files")
	}
	if result.SelectedKind != STTTransducer {
		t.Fatalf("forced kind must be reported, got %s", result.SelectedKind)
	}
	if !strings.Contains(result.Error, "encoder") {
		t.Fatalf("error should name the unresolved role, got %q", result.Error)
	}
}

func TestDetectSTTUnsupportedLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "tokens.txt")

	result := DetectSTT(dir, STTOptions{ModelType: "conformer"})
	if result.OK {
		t.Fatal("expected failure for unsupported model type")
	}
	if !strings.Contains(result.Error, "unsupported") {
		t.Fatalf("expected unsupported error, got %q", result.Error)
	}
}

func TestDetectTTSVitsWithOptionalRoles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "vits-piper-en_US.onnx", "tokens.txt", "lexicon.txt")
	if err := os.Mkdir(filepath.Join(dir, "espeak-ng-data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result := DetectTTS(dir, "auto")
	if !result.OK || result.SelectedKind != TTSVits {
		t.Fatalf("expected vits, got %s (err %q)", result.SelectedKind, result.Error)
	}
	if result.Paths.Model == "" || result.Paths.Tokens == "" {
		t.Fatal("expected model and tokens paths")
	}
	if result.Paths.Lexicon == "" {
		t.Fatal("expected optional lexicon to be picked up")
	}
	if result.Paths.DataDir == "" {
		t.Fatal("expected espeak data dir to be picked up")
	}
}

func TestDetectTTSKokoro(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "kokoro-v1.0.onnx", "voices.bin", "tokens.txt")

	result := DetectTTS(dir, "")
	if !result.OK || result.SelectedKind != TTSKokoro {
		t.Fatalf("expected kokoro, got %s (err %q)", result.SelectedKind, result.Error)
	}
	if result.Paths.Voices == "" {
		t.Fatal("expected voices path")
	}
}

func TestDetectTTSMatcha(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "matcha-icefall-en_US.onnx", "vocos-22khz.onnx", "tokens.txt")

	result := DetectTTS(dir, "auto")
	if !result.OK || result.SelectedKind != TTSMatcha {
		t.Fatalf("expected matcha, got %s (err %q)", result.SelectedKind, result.Error)
	}
	if result.Paths.AcousticModel == "" || result.Paths.Vocoder == "" {
		t.Fatal("expected acoustic model and vocoder paths")
	}
}

func TestDetectTTSZipvoice(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "zipvoice-encoder.onnx", "zipvoice-decoder.onnx", "tokens.txt")

	result := DetectTTS(dir, "auto")
	if !result.OK || result.SelectedKind != TTSZipvoice {
		t.Fatalf("expected zipvoice, got %s (err %q)", result.SelectedKind, result.Error)
	}
	if result.Paths.Encoder == "" || result.Paths.Decoder == "" {
		t.Fatal("expected encoder/decoder paths")
	}
}

func TestDetectTTSForcedKokoroOnVitsDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "vits-model.onnx", "tokens.txt")

	result := DetectTTS(dir, "kokoro")
	if result.OK {
		t.Fatal("expected failure forcing kokoro on a vits directory")
	}
	if !strings.Contains(result.Error, "kokoro-model") {
		t.Fatalf("error should name the unresolved role, got %q", result.Error)
	}
}

func TestScanConcurrentDirectories(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeFiles(t, dirA, "paraformer.onnx", "tokens.txt")
	writeFiles(t, dirB, "kokoro.onnx", "voices.bin", "tokens.txt")

	done := make(chan bool, 2)
	go func() { done <- DetectSTT(dirA, STTOptions{}).OK }()
	go func() { done <- DetectTTS(dirB, "auto").OK }()
	for i := 0; i < 2; i++ {
		if !<-done {
			t.Fatal("concurrent detection failed")
		}
	}
}
