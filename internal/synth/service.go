package synth

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sonalabs/sona-core/internal/bus"
	"github.com/sonalabs/sona-core/internal/config"
	"github.com/sonalabs/sona-core/internal/eventstore"
	"github.com/sonalabs/sona-core/internal/protocol"
)

// Service bridges synthesis requests on the bus to the engine. Requests are
// processed one goroutine each; the engine's internal lock serializes
// actual generation.
type Service struct {
	cfg    config.SynthConfig
	bus    *bus.Client
	engine *Engine
	store  *eventstore.Store
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewService(parent context.Context, cfg config.SynthConfig, busClient *bus.Client, engine *Engine, store *eventstore.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:    cfg,
		bus:    busClient,
		engine: engine,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "synth-service")),
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSynthRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return !s.cfg.Enabled || s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SynthRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode synth request", slogError(err))
		return
	}
	if req.Speed <= 0 {
		req.Speed = 1.0
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(req)
	}()
}

func (s *Service) run(req protocol.SynthRequest) {
	kind := string(s.engine.Kind())
	if s.store != nil {
		_ = s.store.AppendSession(s.ctx, req.SessionID, req.Target)
	}

	sequence := 0
	sampleRate := s.engine.SampleRate()
	completed, err := s.engine.GenerateStream(req.Text, req.SpeakerID, req.Speed,
		func(samples []float32, progress float32) int {
			// Service shutdown cancels the stream cooperatively.
			if s.ctx.Err() != nil {
				return 0
			}
			s.publishChunk(req, sequence, sampleRate, samples, progress)
			sequence++
			return 1
		})

	status := protocol.SynthStatus{
		SessionID: req.SessionID,
		Target:    req.Target,
		Completed: completed,
		Timestamp: time.Now().UTC(),
	}
	eventType := "synth.done"
	if err != nil {
		status.Error = err.Error()
		eventType = "synth.failed"
		s.logger.Warn("synthesis failed", slogError(err), slog.String("session_id", req.SessionID))
	} else if !completed {
		eventType = "synth.cancelled"
	}

	if data, err := json.Marshal(status); err == nil {
		_ = s.bus.Conn().Publish(protocol.SubjectSynthDone, data)
	}
	if s.store != nil {
		payload, _ := json.Marshal(status)
		_ = s.store.AppendEvent(s.ctx, eventstore.Event{
			SessionID: req.SessionID,
			Type:      eventType,
			ModelKind: kind,
			Payload:   payload,
		})
	}
}

func (s *Service) publishChunk(req protocol.SynthRequest, sequence, sampleRate int, samples []float32, progress float32) {
	chunk := protocol.AudioChunk{
		SessionID:  req.SessionID,
		Target:     req.Target,
		Sequence:   sequence,
		SampleRate: sampleRate,
		PCM:        encodePCM16(samples),
		Progress:   progress,
		Final:      progress >= 1.0,
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		s.logger.Warn("failed to marshal audio chunk", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSynthAudio, data); err != nil {
		s.logger.Warn("failed to publish audio chunk", slogError(err))
	}
}

func encodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sample*32767)))
	}
	return out
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
