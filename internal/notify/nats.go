// Package notify publishes build events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/pub/internal/compiler"
	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/logfields"
)

// Event types.
const (
	EventCompleted = "build.completed"
	EventFailed    = "build.failed"
)

// Event is the JSON payload published after each compile pass.
type Event struct {
	Type string `json:"type"`
	compiler.Summary
}

// Encode builds the payload for sum.
func Encode(sum compiler.Summary) ([]byte, error) {
	ev := Event{Type: EventCompleted, Summary: sum}
	if sum.Error != "" {
		ev.Type = EventFailed
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Publisher sends build events to a subject. A nil Publisher discards events.
type Publisher struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

// Connect dials url. An empty url returns a nil Publisher and no error.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url, nats.Name("pub"), nats.Timeout(2*time.Second))
	if err != nil {
		return nil, ferrors.NetworkError("failed to connect to NATS").
			WithContext("url", url).
			WithCause(err).
			Build()
	}
	logger.Info("Publishing build events", slog.String("url", url), slog.String("subject", subject))
	return &Publisher{conn: conn, subject: subject, log: logger}, nil
}

// Publish sends the event for sum and waits for the server to acknowledge
// the flush or for ctx to end.
func (p *Publisher) Publish(ctx context.Context, sum compiler.Summary) error {
	if p == nil {
		return nil
	}
	data, err := Encode(sum)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	p.log.Debug("Published build event", logfields.BuildID(sum.BuildID), slog.String("subject", p.subject))
	return nil
}

// Observer returns a build observer that publishes every pass. Publish
// failures are logged.
func (p *Publisher) Observer() func(context.Context, compiler.Summary) {
	return func(ctx context.Context, sum compiler.Summary) {
		if p == nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, sum); err != nil {
			p.log.Warn("Failed to publish build event", logfields.BuildID(sum.BuildID), logfields.Error(err))
		}
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}
