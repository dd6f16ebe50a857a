package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/thebowwman/navplot/internals/route"
)

const SubjectPrefix = "navplot.route."

// flushTimeout bounds the server round trip when the caller's context has
// no deadline of its own; nats.go refuses to flush without one.
const flushTimeout = 2 * time.Second

// Publisher forwards route snapshots to other consumers of a session.
type Publisher interface {
	PublishRoute(ctx context.Context, sessionID string, snap route.Snapshot) error
	Close()
}

// RouteUpdate is the payload published for every route change.
type RouteUpdate struct {
	SessionID string         `json:"session_id"`
	At        time.Time      `json:"at"`
	Route     route.Snapshot `json:"route"`
}

func Subject(sessionID string) string { return SubjectPrefix + sessionID }

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes on core NATS; updates are fire-and-forget and
// not retained by the server.
type NATSPublisher struct {
	conn Conn
}

// NewNATS connects to the NATS server at url.
func NewNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("navplot"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

// NewWithConn is useful for testing.
func NewWithConn(conn Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) PublishRoute(ctx context.Context, sessionID string, snap route.Snapshot) error {
	data, err := json.Marshal(RouteUpdate{SessionID: sessionID, At: time.Now().UTC(), Route: snap})
	if err != nil {
		return fmt.Errorf("failed to marshal route update: %w", err)
	}

	if err := p.conn.Publish(Subject(sessionID), data); err != nil {
		return fmt.Errorf("failed to publish route update: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush route update: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// Nop discards every update. It is used when no NATS server is configured.
type Nop struct{}

func (Nop) PublishRoute(context.Context, string, route.Snapshot) error { return nil }
func (Nop) Close()                                                     {}
