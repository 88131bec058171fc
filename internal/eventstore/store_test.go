package eventstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sonalabs/sona-core/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	cfg := config.EventStoreConfig{RetentionMode: "ephemeral"}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	// No-op store accepts writes silently.
	if err := es.AppendEvent(context.Background(), Event{SessionID: "s", Type: "detect.tts"}); err != nil {
		t.Fatalf("append on ephemeral store: %v", err)
	}
	events, err := es.ListSessionEvents(context.Background(), "s", 10)
	if err != nil || events != nil {
		t.Fatalf("ephemeral store must return nothing, got %v (%v)", events, err)
	}
}

func TestAppendAndQuery(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.EventStoreConfig{Path: filepath.Join(tmp, "events.db"), RetentionMode: "session"}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	sessionID := "session-123"
	if err := es.AppendSession(context.Background(), sessionID, "speaker-1"); err != nil {
		t.Fatalf("append session: %v", err)
	}
	if err := es.AppendEvent(context.Background(), Event{
		SessionID: sessionID,
		Type:      "detect.tts",
		ModelKind: "vits",
		Payload:   []byte(`{"ok":true}`),
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := es.AppendEvent(context.Background(), Event{
		SessionID: sessionID,
		Type:      "synth.done",
		ModelKind: "vits",
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	events, err := es.ListSessionEvents(context.Background(), sessionID, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "detect.tts" || events[1].Type != "synth.done" {
		t.Fatalf("events out of order: %v, %v", events[0].Type, events[1].Type)
	}
	if events[0].ModelKind != "vits" {
		t.Fatalf("expected model kind recorded, got %q", events[0].ModelKind)
	}
}
