// Package events publishes grievance lifecycle events over NATS so
// downstream services (dashboards, escalation workers) can react without
// polling the database.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectSubmitted is the NATS subject for completed grievance submissions.
const SubjectSubmitted = "nivaran.grievance.submitted"

// SubmittedEvent is emitted when a citizen reports having submitted the
// prefilled form.
type SubmittedEvent struct {
	SubmissionID   string `json:"submission_id"`
	ConversationID string `json:"conversation_id"`
	Category       string `json:"category"`
	Language       string `json:"language"`
	SubmittedAt    string `json:"submitted_at"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, logger: logger}, nil
}

// Publish sends an event on a subject. A nil Publisher is a no-op so
// callers need no guards when event publishing is not configured.
func (p *Publisher) Publish(subject string, data any) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
