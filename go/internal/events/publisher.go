package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher hands domain events to the message bus. Publishing is
// best-effort from the engines' point of view: a failed publish is
// logged, never rolled into the draft or transition outcome.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// envelope is the wire format shared with downstream consumers.
type envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NATSPublisher publishes envelopes on <subjectPrefix>.<eventType>.
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        zerolog.Logger
}

func NewNATSPublisher(conn *nats.Conn, subjectPrefix string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger.With().Str("component", "events").Logger(),
	}
}

func (p *NATSPublisher) Publish(_ context.Context, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	msg, err := json.Marshal(envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectPrefix + "." + eventType
	if err := p.conn.Publish(subject, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	p.logger.Debug().Str("subject", subject).Str("event_type", eventType).Msg("published event")
	return nil
}

// NopPublisher drops events. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
