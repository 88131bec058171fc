package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sonalabs/sona-core/internal/bus"
	"github.com/sonalabs/sona-core/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Capability describes one thing a node can do, e.g. synth.tts with the
// loaded model kind as an attribute.
type Capability struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NodeInfo tracks a peer seen on the bus.
type NodeInfo struct {
	ID           string       `json:"id"`
	Role         string       `json:"role"`
	Capabilities []Capability `json:"capabilities"`
	LastSeen     time.Time    `json:"last_seen"`
	Healthy      bool         `json:"healthy"`
}

type announceMessage struct {
	NodeID       string       `json:"node_id"`
	Role         string       `json:"role"`
	Capabilities []Capability `json:"capabilities"`
	Timestamp    time.Time    `json:"timestamp"`
}

type heartbeatMessage struct {
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry announces this node's capabilities so model-picker UIs and other
// runtimes can discover which engines are loaded where.
type Registry struct {
	cfg          config.NodeConfig
	log          *slog.Logger
	bus          *bus.Client
	capabilities []Capability
	mu           sync.RWMutex
	nodes        map[string]*NodeInfo
	heartbeat    *time.Ticker
	cancel       context.CancelFunc
	subs         []*nats.Subscription
	meter        metric.Meter
	nodeGauge    metric.Int64ObservableGauge
}

func NewRegistry(ctx context.Context, cfg config.NodeConfig, busClient *bus.Client, capabilities []Capability, log *slog.Logger) (*Registry, error) {
	ctx, cancel := context.WithCancel(ctx)
	r := &Registry{
		cfg:          cfg,
		log:          log.With(slog.String("component", "capability-registry")),
		bus:          busClient,
		capabilities: capabilities,
		nodes:        make(map[string]*NodeInfo),
		meter:        otel.Meter("github.com/sonalabs/sona-core/capability"),
		cancel:       cancel,
	}

	if err := r.initMetrics(); err != nil {
		r.log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}

	if err := r.subscribe(); err != nil {
		r.cancel()
		return nil, err
	}

	r.heartbeat = time.NewTicker(time.Duration(cfg.HeartbeatInterval) * time.Millisecond)
	go r.runHeartbeat(ctx)
	go r.monitorHealth(ctx)

	if err := r.announce(); err != nil {
		r.log.Warn("failed to announce node", slog.String("error", err.Error()))
	}

	return r, nil
}

func (r *Registry) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.heartbeat != nil {
		r.heartbeat.Stop()
	}
	for _, sub := range r.subs {
		_ = sub.Drain()
	}
}

func (r *Registry) initMetrics() error {
	gauge, err := r.meter.Int64ObservableGauge("sona_capability_nodes",
		metric.WithDescription("Known nodes by health"),
		metric.WithInt64Callback(func(_ context.Context, observer metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			healthy := int64(0)
			for _, node := range r.nodes {
				if node.Healthy {
					healthy++
				}
			}
			observer.Observe(healthy, metric.WithAttributes(attribute.Bool("healthy", true)))
			observer.Observe(int64(len(r.nodes))-healthy, metric.WithAttributes(attribute.Bool("healthy", false)))
			return nil
		}))
	if err != nil {
		return err
	}
	r.nodeGauge = gauge
	return nil
}

func (r *Registry) subscribe() error {
	conn := r.bus.Conn()
	announceSub, err := conn.Subscribe("ctrl.node.announce", r.handleAnnounce)
	if err != nil {
		return fmt.Errorf("subscribe announce: %w", err)
	}
	r.subs = append(r.subs, announceSub)

	heartbeatSub, err := conn.Subscribe("ctrl.node.heartbeat.*", r.handleHeartbeat)
	if err != nil {
		return fmt.Errorf("subscribe heartbeat: %w", err)
	}
	r.subs = append(r.subs, heartbeatSub)

	return nil
}

func (r *Registry) announce() error {
	msg := announceMessage{
		NodeID:       r.cfg.ID,
		Role:         r.cfg.Role,
		Capabilities: r.capabilities,
		Timestamp:    time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.bus.Conn().Publish("ctrl.node.announce", data)
}

func (r *Registry) runHeartbeat(ctx context.Context) {
	subject := "ctrl.node.heartbeat." + r.cfg.ID
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.heartbeat.C:
			msg := heartbeatMessage{NodeID: r.cfg.ID, Timestamp: time.Now().UTC()}
			if data, err := json.Marshal(msg); err == nil {
				if err := r.bus.Conn().Publish(subject, data); err != nil {
					r.log.Warn("heartbeat publish failed", slog.String("error", err.Error()))
				}
			}
		}
	}
}

func (r *Registry) monitorHealth(ctx context.Context) {
	interval := time.Duration(r.cfg.HeartbeatTimeout) * time.Millisecond
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for _, node := range r.nodes {
				node.Healthy = now.Sub(node.LastSeen) < interval
			}
			r.mu.Unlock()
		}
	}
}

func (r *Registry) handleAnnounce(msg *nats.Msg) {
	var announce announceMessage
	if err := json.Unmarshal(msg.Data, &announce); err != nil {
		r.log.Warn("invalid announce message", slog.String("error", err.Error()))
		return
	}
	r.mu.Lock()
	r.nodes[announce.NodeID] = &NodeInfo{
		ID:           announce.NodeID,
		Role:         announce.Role,
		Capabilities: announce.Capabilities,
		LastSeen:     time.Now().UTC(),
		Healthy:      true,
	}
	r.mu.Unlock()
}

func (r *Registry) handleHeartbeat(msg *nats.Msg) {
	var hb heartbeatMessage
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		return
	}
	r.mu.Lock()
	if node, ok := r.nodes[hb.NodeID]; ok {
		node.LastSeen = time.Now().UTC()
		node.Healthy = true
	}
	r.mu.Unlock()
}

// Nodes returns a snapshot of known peers.
func (r *Registry) Nodes() []NodeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NodeInfo, 0, len(r.nodes))
	for _, node := range r.nodes {
		out = append(out, *node)
	}
	return out
}
