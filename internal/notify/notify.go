// Package notify publishes finished benchmark result sets to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/quincunx271/nickeltools/internal/bench"
	"github.com/quincunx271/nickeltools/internal/config"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// EventType identifies result-set events.
const EventType = "bench.result"

// ResultEvent is the message published for each finished result set.
type ResultEvent struct {
	Type        string          `json:"type"`
	RunID       string          `json:"run_id"`
	Benchmark   string          `json:"benchmark"`
	Which       string          `json:"which"`
	PublishedAt time.Time       `json:"published_at"`
	Result      bench.ResultSet `json:"result"`
}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Publisher implements bench.Publisher over a NATS connection.
type Publisher struct {
	conn    conn
	subject string
	now     func() time.Time
}

// NewPublisher connects to the configured NATS server.
func NewPublisher(cfg config.NotifyConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ferrors.ConfigError("notifications are disabled").Build()
	}
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("nickeltools"))
	if err != nil {
		return nil, ferrors.NetworkError("failed to connect to NATS").WithCause(err).
			WithContext("url", cfg.NATSURL).Build()
	}
	slog.Info("NATS publisher connected", slog.String("url", cfg.NATSURL), slog.String("subject", cfg.Subject))
	return &Publisher{conn: nc, subject: cfg.Subject, now: time.Now}, nil
}

// NewEvent wraps set into a ResultEvent.
func NewEvent(set bench.ResultSet, at time.Time) ResultEvent {
	return ResultEvent{
		Type:        EventType,
		RunID:       set.RunID,
		Benchmark:   set.Name,
		Which:       set.Which,
		PublishedAt: at.UTC(),
		Result:      set,
	}
}

// Publish sends set and waits for the server to acknowledge the flush.
func (p *Publisher) Publish(ctx context.Context, set bench.ResultSet) error {
	data, err := json.Marshal(NewEvent(set, p.now()))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.NetworkError("failed to publish event").WithCause(err).
			WithContext("subject", p.subject).Build()
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := p.conn.FlushTimeout(timeout); err != nil {
		return ferrors.NetworkError("failed to flush event").WithCause(err).Build()
	}
	slog.Debug("Published result set", logfields.Benchmark(set.Name), logfields.Which(set.Which), logfields.RunID(set.RunID))
	return nil
}

// Close closes the connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
