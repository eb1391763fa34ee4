package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MessagePublisher is the subset of *nats.Conn used to emit events.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// SessionStatusEvent is emitted when attendance marking moves a session to a new status.
type SessionStatusEvent struct {
	SessionID  uint      `json:"session_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Source     string    `json:"source"`
	ActorID    uint      `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SessionEventPublisher announces session status changes.
type SessionEventPublisher interface {
	StatusChanged(ctx context.Context, event SessionStatusEvent)
}

type sessionEventPublisher struct {
	conn    MessagePublisher
	subject string
	logger  zerolog.Logger
}

// NewSessionEventPublisher publishes on "<prefix>.sessions.status". A nil connection turns
// publishing into a no-op.
func NewSessionEventPublisher(conn MessagePublisher, prefix string, logger zerolog.Logger) SessionEventPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "drumschool"
	}
	return &sessionEventPublisher{
		conn:    conn,
		subject: prefix + ".sessions.status",
		logger:  logger.With().Str("component", "session_events").Logger(),
	}
}

func (p *sessionEventPublisher) StatusChanged(ctx context.Context, event SessionStatusEvent) {
	if p.conn == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Uint("session_id", event.SessionID).Msg("failed to encode session event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", p.subject).Uint("session_id", event.SessionID).Msg("failed to publish session event")
	}
}
