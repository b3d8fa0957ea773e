// Package outbox records domain events next to the state change that
// caused them and relays them to Kafka after commit.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"

	"github.com/google/uuid"
)

const (
	AggregateBooking = "booking"
	AggregatePayment = "payment"
	AggregateWallet  = "wallet"
)

const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
	BookingExpired   = "booking.expired"
	PaymentInitiated = "payment.initiated"
	PaymentCompleted = "payment.completed"
	PaymentFailed    = "payment.failed"
	PaymentRefunded  = "payment.refunded"
	WalletCredited   = "wallet.credited"
	WalletDebited    = "wallet.debited"
)

// Message is the envelope published to Kafka.
type Message struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Producer      string          `json:"producer"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Recorder appends events through the outbox repository. Called with a
// transactional ctx, the event commits or rolls back with the caller.
type Recorder struct {
	repo repository.OutboxRepository
}

func NewRecorder(repo repository.OutboxRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	now := time.Now()
	return r.repo.Create(ctx, &entity.OutboxEvent{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		Status:        entity.OutboxStatusNew,
	})
}
