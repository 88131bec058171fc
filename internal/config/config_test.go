package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Models.TTSType != "auto" {
		t.Fatalf("expected auto tts type, got %q", cfg.Models.TTSType)
	}
	if cfg.Synth.Mode != "mock" {
		t.Fatalf("expected mock synth mode, got %q", cfg.Synth.Mode)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SONA_MODELS_TTS_DIR", "/opt/models/kokoro")
	t.Setenv("SONA_MODELS_TTS_TYPE", "kokoro")
	t.Setenv("SONA_MODELS_PREFER_INT8", "true")
	t.Setenv("SONA_SYNTH_ENABLED", "true")
	t.Setenv("SONA_SYNTH_NUM_THREADS", "4")
	t.Setenv("SONA_SYNTH_NOISE_SCALE", "0.667")
	t.Setenv("SONA_SYNTH_LENGTH_SCALE", "1.2")
	t.Setenv("SONA_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("SONA_NODE_ID", "test-node")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Models.TTSDir != "/opt/models/kokoro" {
		t.Fatalf("expected tts dir override, got %q", cfg.Models.TTSDir)
	}
	if cfg.Models.TTSType != "kokoro" {
		t.Fatalf("expected tts type override, got %q", cfg.Models.TTSType)
	}
	if !cfg.Models.PreferInt8 {
		t.Fatal("expected prefer_int8 override true")
	}
	if !cfg.Synth.Enabled {
		t.Fatal("expected synth enabled override")
	}
	if cfg.Synth.NumThreads != 4 {
		t.Fatalf("expected 4 threads, got %d", cfg.Synth.NumThreads)
	}
	if cfg.Synth.NoiseScale != 0.667 {
		t.Fatalf("expected noise scale override, got %v", cfg.Synth.NoiseScale)
	}
	if cfg.Synth.LengthScale != 1.2 {
		t.Fatalf("expected length scale override, got %v", cfg.Synth.LengthScale)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Node.ID != "test-node" {
		t.Fatalf("expected node id override")
	}
}

func TestValidateRejectsBadSynth(t *testing.T) {
	t.Setenv("SONA_SYNTH_NUM_THREADS", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for zero threads")
	}

	t.Setenv("SONA_SYNTH_NUM_THREADS", "2")
	t.Setenv("SONA_SYNTH_MODE", "onnx")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown synth mode")
	}
}
