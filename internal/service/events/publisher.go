// Package events publishes session lifecycle and vehicle events to NATS so
// fleet tooling can observe live co-pilot sessions.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Event kinds, appended to the subject prefix.
const (
	KindSessionOpened       = "session.opened"
	KindSessionClosed       = "session.closed"
	KindHealthAlert         = "vehicle.alert"
	KindNavigationStarted   = "navigation.started"
	KindNavigationMilestone = "navigation.milestone"
	KindCommandProcessed    = "command.processed"
)

// Event is the JSON envelope published for every occurrence.
type Event struct {
	Kind      string    `json:"kind"`
	SessionID string    `json:"sessionId"`
	Persona   string    `json:"persona,omitempty"`
	At        time.Time `json:"at"`
	Payload   any       `json:"payload,omitempty"`
}

// Publisher emits session events. Implementations must not block the caller
// on network I/O.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher writes events as JSON to "<prefix>.<kind>".
type NATSPublisher struct {
	conn   natsConn
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Connect dials the NATS server at url.
func Connect(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "events")

	nc, err := nats.Connect(url,
		nats.Name("velovoice-copilot"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return newNATSPublisher(nc, prefix, logger), nil
}

func newNATSPublisher(conn natsConn, prefix string, logger *slog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = "velovoice"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject an event of kind is published on.
func (p *NATSPublisher) Subject(kind string) string {
	return p.prefix + "." + kind
}

func (p *NATSPublisher) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil
	}

	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(evt.Kind), data); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Kind, err)
	}
	return nil
}

// Close drains pending publishes. It is safe to call more than once.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Drain()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
