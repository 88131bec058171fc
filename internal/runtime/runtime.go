package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sonalabs/sona-core/internal/bus"
	"github.com/sonalabs/sona-core/internal/capability"
	"github.com/sonalabs/sona-core/internal/config"
	"github.com/sonalabs/sona-core/internal/eventstore"
	"github.com/sonalabs/sona-core/internal/modeldetect"
	"github.com/sonalabs/sona-core/internal/natsserver"
	"github.com/sonalabs/sona-core/internal/protocol"
	"github.com/sonalabs/sona-core/internal/synth"
)

// Runtime owns the daemon's long-lived pieces: telemetry, bus, event store,
// the synthesis engine, and the services around them.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	registry    *capability.Registry
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded bus: %w", err)
	}
	defer embedded.Shutdown()

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	store, err := eventstore.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer store.Close()

	engine := synth.New(r.cfg.Synth, r.logger)
	defer engine.Release()

	capabilities := []capability.Capability{
		{Name: "models.detect"},
	}
	if r.cfg.Synth.Enabled {
		detection, err := engine.Initialize(synth.InitOptions{
			ModelDir:    r.cfg.Models.TTSDir,
			ModelType:   r.cfg.Models.TTSType,
			NumThreads:  r.cfg.Synth.NumThreads,
			Debug:       r.cfg.Synth.Debug,
			NoiseScale:  optionalScale(r.cfg.Synth.NoiseScale),
			NoiseScaleW: optionalScale(r.cfg.Synth.NoiseScaleW),
			LengthScale: optionalScale(r.cfg.Synth.LengthScale),
		})
		r.recordDetection(ctx, store, detection)
		if err != nil {
			return fmt.Errorf("failed to initialize synthesis engine: %w", err)
		}
		capabilities = append(capabilities, capability.Capability{
			Name: "synth.tts",
			Attributes: map[string]string{
				"kind":         string(detection.SelectedKind),
				"sample_rate":  strconv.Itoa(engine.SampleRate()),
				"num_speakers": strconv.Itoa(engine.NumSpeakers()),
			},
		})
	}

	detectService := modeldetect.NewService(ctx, busClient, store, r.logger)
	if err := detectService.Start(); err != nil {
		return fmt.Errorf("failed to start detection service: %w", err)
	}
	defer detectService.Close()

	synthService := synth.NewService(ctx, r.cfg.Synth, busClient, engine, store, r.logger)
	if err := synthService.Start(); err != nil {
		return fmt.Errorf("failed to start synthesis service: %w", err)
	}
	defer synthService.Close()

	registry, err := capability.NewRegistry(ctx, r.cfg.Node, busClient, capabilities, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start capability registry: %w", err)
	}
	defer registry.Close()
	r.registry = registry

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	mux.HandleFunc("/v1/models/detect", r.handleDetect)
	mux.HandleFunc("/v1/nodes", r.handleNodes)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) recordDetection(ctx context.Context, store *eventstore.Store, detection modeldetect.TTSResult) {
	payload, err := json.Marshal(detection)
	if err != nil {
		return
	}
	if err := store.AppendEvent(ctx, eventstore.Event{
		SessionID: "startup",
		Type:      "detect.tts",
		ModelKind: string(detection.SelectedKind),
		Payload:   payload,
	}); err != nil {
		r.logger.Warn("failed to record detection", slog.String("error", err.Error()))
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

// handleDetect runs one detection pass for diagnostics, e.g.
// GET /v1/models/detect?dir=/opt/models/kokoro&direction=tts.
func (r *Runtime) handleDetect(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	dir := query.Get("dir")
	if dir == "" {
		http.Error(w, "missing dir parameter", http.StatusBadRequest)
		return
	}
	detect := protocol.DetectRequest{
		Direction:  query.Get("direction"),
		ModelDir:   dir,
		ModelType:  query.Get("type"),
		PreferInt8: query.Get("prefer_int8") == "true",
	}

	w.Header().Set("Content-Type", "application/json")
	if detect.Direction == "stt" {
		result := modeldetect.DetectSTT(detect.ModelDir, modeldetect.STTOptions{
			ModelType:  detect.ModelType,
			PreferInt8: detect.PreferInt8,
		})
		_ = json.NewEncoder(w).Encode(result)
		return
	}
	result := modeldetect.DetectTTS(detect.ModelDir, detect.ModelType)
	_ = json.NewEncoder(w).Encode(result)
}

func (r *Runtime) handleNodes(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(r.registry.Nodes())
}

// optionalScale maps a zero config value to "use the model default".
func optionalScale(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
