package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type NodeConfig struct {
	ID                string `yaml:"id"`
	Role              string `yaml:"role"`
	HeartbeatInterval int    `yaml:"heartbeat_interval_ms"`
	HeartbeatTimeout  int    `yaml:"heartbeat_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// ModelsConfig points detection at the on-disk model directories.
type ModelsConfig struct {
	TTSDir     string `yaml:"tts_dir"`
	TTSType    string `yaml:"tts_type"`
	STTDir     string `yaml:"stt_dir"`
	STTType    string `yaml:"stt_type"`
	PreferInt8 bool   `yaml:"prefer_int8"`
}

// SynthConfig controls the synthesis engine and its inference backend.
type SynthConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Mode            string  `yaml:"mode"` // mock, exec
	Command         string  `yaml:"command"`
	NumThreads      int     `yaml:"num_threads"`
	Debug           bool    `yaml:"debug"`
	NoiseScale      float64 `yaml:"noise_scale"`
	NoiseScaleW     float64 `yaml:"noise_scale_w"`
	LengthScale     float64 `yaml:"length_scale"`
	ChunkDurationMS int     `yaml:"chunk_duration_ms"`
	SampleRate      int     `yaml:"sample_rate"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	Node        NodeConfig       `yaml:"node"`
	EventStore  EventStoreConfig `yaml:"event_store"`
	Models      ModelsConfig     `yaml:"models"`
	Synth       SynthConfig      `yaml:"synth"`
}

func Default() Config {
	return Config{
		RuntimeName: "sona-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Node: NodeConfig{
			ID:                "sona-node-1",
			Role:              "synthesis",
			HeartbeatInterval: 2000,
			HeartbeatTimeout:  6000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/sona-events.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Models: ModelsConfig{
			TTSDir:  "./models/tts",
			TTSType: "auto",
			STTDir:  "",
			STTType: "auto",
		},
		Synth: SynthConfig{
			Enabled:         false,
			Mode:            "mock",
			NumThreads:      2,
			ChunkDurationMS: 400,
			SampleRate:      22050,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "SONA_RUNTIME_NAME")
	overrideString(&cfg.Environment, "SONA_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "SONA_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "SONA_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "SONA_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "SONA_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "SONA_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "SONA_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "SONA_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "SONA_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "SONA_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "SONA_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "SONA_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "SONA_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "SONA_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "SONA_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Node.ID, "SONA_NODE_ID")
	overrideString(&cfg.Node.Role, "SONA_NODE_ROLE")
	overrideInt(&cfg.Node.HeartbeatInterval, "SONA_NODE_HEARTBEAT_INTERVAL_MS")
	overrideInt(&cfg.Node.HeartbeatTimeout, "SONA_NODE_HEARTBEAT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "SONA_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "SONA_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "SONA_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxSessions, "SONA_EVENT_STORE_MAX_SESSIONS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "SONA_EVENT_STORE_VACUUM_ON_START")
	overrideString(&cfg.Models.TTSDir, "SONA_MODELS_TTS_DIR")
	overrideString(&cfg.Models.TTSType, "SONA_MODELS_TTS_TYPE")
	overrideString(&cfg.Models.STTDir, "SONA_MODELS_STT_DIR")
	overrideString(&cfg.Models.STTType, "SONA_MODELS_STT_TYPE")
	overrideBool(&cfg.Models.PreferInt8, "SONA_MODELS_PREFER_INT8")
	overrideBool(&cfg.Synth.Enabled, "SONA_SYNTH_ENABLED")
	overrideString(&cfg.Synth.Mode, "SONA_SYNTH_MODE")
	overrideString(&cfg.Synth.Command, "SONA_SYNTH_COMMAND")
	overrideInt(&cfg.Synth.NumThreads, "SONA_SYNTH_NUM_THREADS")
	overrideBool(&cfg.Synth.Debug, "SONA_SYNTH_DEBUG")
	overrideFloat(&cfg.Synth.NoiseScale, "SONA_SYNTH_NOISE_SCALE")
	overrideFloat(&cfg.Synth.NoiseScaleW, "SONA_SYNTH_NOISE_SCALE_W")
	overrideFloat(&cfg.Synth.LengthScale, "SONA_SYNTH_LENGTH_SCALE")
	overrideInt(&cfg.Synth.ChunkDurationMS, "SONA_SYNTH_CHUNK_DURATION_MS")
	overrideInt(&cfg.Synth.SampleRate, "SONA_SYNTH_SAMPLE_RATE")
}

func validate(cfg Config) error {
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", cfg.HTTP.Port)
	}
	if cfg.Synth.NumThreads < 1 {
		return fmt.Errorf("synth num_threads must be >= 1, got %d", cfg.Synth.NumThreads)
	}
	switch cfg.Synth.Mode {
	case "mock", "exec":
	default:
		return fmt.Errorf("unknown synth mode %q", cfg.Synth.Mode)
	}
	if cfg.Synth.Mode == "exec" && cfg.Synth.Enabled && strings.TrimSpace(cfg.Synth.Command) == "" {
		return fmt.Errorf("synth mode exec requires a command")
	}
	if cfg.Synth.ChunkDurationMS <= 0 {
		return fmt.Errorf("synth chunk_duration_ms must be positive, got %d", cfg.Synth.ChunkDurationMS)
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return fmt.Errorf("unknown event store retention mode %q", cfg.EventStore.RetentionMode)
	}
	return nil
}

func overrideString(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		*target = value
	}
}

func overrideStringSlice(target *[]string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			*target = out
		}
	}
}

func overrideInt(target *int, key string) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, key string) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, key string) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			*target = parsed
		}
	}
}
