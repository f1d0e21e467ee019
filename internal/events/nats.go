package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsConfig holds NATS connection settings for the decision bus.
type NatsConfig struct {
	URL        string        // NATS server URL (e.g. "nats://localhost:4222")
	StreamName string        // JetStream stream name (default: "CORTEX")
	Timeout    time.Duration // Connection timeout
}

// NatsBus publishes decision events to a JetStream stream so they
// survive consumer restarts.
type NatsBus struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	streamName string
}

// NewNatsBus connects to NATS and ensures the decision stream exists.
func NewNatsBus(cfg NatsConfig) (*NatsBus, error) {
	if cfg.URL == "" {
		cfg.URL = "nats://localhost:4222"
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "CORTEX"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Timeout(cfg.Timeout),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	b := &NatsBus{conn: nc, js: js, streamName: cfg.StreamName}
	if err := b.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	log.Printf("Connected to NATS at %s with JetStream stream %s", cfg.URL, cfg.StreamName)
	return b, nil
}

// ensureStream creates or updates the JetStream stream. Limits
// retention lets several consumers replay the same decisions.
func (b *NatsBus) ensureStream() error {
	streamConfig := &nats.StreamConfig{
		Name:      b.streamName,
		Subjects:  []string{"cortex.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		MaxBytes:  256 * 1024 * 1024,
		Storage:   nats.FileStorage,
		Replicas:  1,
		Discard:   nats.DiscardOld,
	}

	if _, err := b.js.StreamInfo(b.streamName); err != nil {
		if _, err := b.js.AddStream(streamConfig); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
		log.Printf("Created JetStream stream: %s", b.streamName)
		return nil
	}
	if _, err := b.js.UpdateStream(streamConfig); err != nil {
		return fmt.Errorf("failed to update stream: %w", err)
	}
	return nil
}

// Publish writes one decision event to cortex.decisions.<agent_id>.
func (b *NatsBus) Publish(ev DecisionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal decision event: %w", err)
	}
	subject := fmt.Sprintf("cortex.decisions.%s", ev.AgentID)
	if _, err := b.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish decision to %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a durable consumer over all agents' decisions.
func (b *NatsBus) Subscribe(consumerName string, handler func(DecisionEvent)) error {
	const sub = "cortex.decisions.>"
	_, err := b.js.Subscribe(sub, func(msg *nats.Msg) {
		var ev DecisionEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("Failed to unmarshal decision event: %v", err)
			msg.Nak()
			return
		}
		handler(ev)
		msg.Ack()
	},
		nats.Durable(consumerName),
		nats.AckExplicit(),
		nats.MaxDeliver(3),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", sub, err)
	}
	return nil
}

// Health reports whether the connection and stream are usable.
func (b *NatsBus) Health() error {
	if b.conn.IsClosed() {
		return fmt.Errorf("NATS connection is closed")
	}
	if !b.conn.IsConnected() {
		return fmt.Errorf("NATS is not connected")
	}
	if _, err := b.js.StreamInfo(b.streamName); err != nil {
		return fmt.Errorf("JetStream stream %s is unhealthy: %w", b.streamName, err)
	}
	return nil
}

// Close closes the NATS connection.
func (b *NatsBus) Close() error {
	b.conn.Close()
	return nil
}
