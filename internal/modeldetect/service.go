package modeldetect

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/sonalabs/sona-core/internal/bus"
	"github.com/sonalabs/sona-core/internal/eventstore"
	"github.com/sonalabs/sona-core/internal/protocol"
)

// Service answers detection queries over the bus so a presentation layer
// can classify candidate directories without linking this package.
type Service struct {
	bus    *bus.Client
	store  *eventstore.Store
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

func NewService(parent context.Context, busClient *bus.Client, store *eventstore.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:    busClient,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "modeldetect-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectModelsDetect, s.handleRequest)
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
}

func (s *Service) Healthy() bool { return s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.DetectRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode detect request", slog.String("error", err.Error()))
		return
	}

	if req.Direction != "stt" {
		req.Direction = "tts"
	}

	var (
		reply []byte
		kind  string
		err   error
	)
	switch req.Direction {
	case "stt":
		result := DetectSTT(req.ModelDir, STTOptions{ModelType: req.ModelType, PreferInt8: req.PreferInt8})
		kind = string(result.SelectedKind)
		reply, err = json.Marshal(result)
	default:
		result := DetectTTS(req.ModelDir, req.ModelType)
		kind = string(result.SelectedKind)
		reply, err = json.Marshal(result)
	}
	if err != nil {
		s.logger.Warn("failed to marshal detect result", slog.String("error", err.Error()))
		return
	}

	if msg.Reply != "" {
		if err := msg.Respond(reply); err != nil {
			s.logger.Warn("failed to respond to detect request", slog.String("error", err.Error()))
		}
	}
	if s.store != nil {
		_ = s.store.AppendEvent(s.ctx, eventstore.Event{
			SessionID: "diagnostics",
			Type:      "detect." + req.Direction,
			ModelKind: kind,
			Payload:   reply,
		})
	}
}
