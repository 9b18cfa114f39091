package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"

	SessionCreated   = "session.created"
	SessionStarted   = "session.started"
	SessionCompleted = "session.completed"
	SessionCancelled = "session.cancelled"
	SessionsSwept    = "session.swept"
	// SessionAwardFailed carries a completion credit that still has to be
	// written to the bonus ledger.
	SessionAwardFailed = "session.award_failed"
)

// Publisher emits domain events. Publishing is best effort: callers log a
// failure and carry on, the state change has already committed.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

type Envelope struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func NewEnvelope(key string, payload any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
