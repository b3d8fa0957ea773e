package usecase

import (
	"context"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"
	"smart-bus/internal/outbox"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateBookingParams is the engine input for a new seat hold.
type CreateBookingParams struct {
	HolderID       uuid.UUID
	HolderCategory string
	SeatID         uuid.UUID
	RunID          uuid.UUID
	TravelDate     time.Time
	Price          decimal.Decimal
	Discount       decimal.Decimal
}

// BookingStateMachine moves one booking through
// pending -> confirmed -> completed, with cancellation from pending or
// confirmed. It runs inside the coordinator's unit of work.
type BookingStateMachine struct {
	bookings     repository.BookingRepository
	seats        *SeatLedger
	events       *outbox.Recorder
	holdDuration time.Duration
	now          func() time.Time
	log          *zap.Logger
}

func NewBookingStateMachine(bookings repository.BookingRepository, seats *SeatLedger, events *outbox.Recorder, holdDuration time.Duration, now func() time.Time, log *zap.Logger) *BookingStateMachine {
	return &BookingStateMachine{
		bookings:     bookings,
		seats:        seats,
		events:       events,
		holdDuration: holdDuration,
		now:          now,
		log:          log.With(zap.String("machine", "booking")),
	}
}

func (m *BookingStateMachine) Create(ctx context.Context, p CreateBookingParams) (*entity.Booking, error) {
	if !p.Price.IsPositive() || !utils.WithinLimit(p.Price) {
		return nil, apperr.Validation("booking", "", "price must be positive and at most "+utils.MaxAmount.StringFixed(2))
	}
	if p.Discount.IsNegative() || p.Discount.GreaterThan(p.Price) {
		return nil, apperr.Validation("booking", "", "discount must be between zero and the price")
	}

	now := m.now()
	if calendarDay(p.TravelDate).Before(calendarDay(now)) {
		return nil, apperr.Validation("booking", "", "travel date is in the past")
	}

	seat, err := m.seats.seats.FindByID(ctx, p.SeatID)
	if err != nil {
		return nil, err
	}
	if seat == nil || seat.RunID != p.RunID {
		return nil, apperr.NotFound("seat", p.SeatID.String())
	}

	if _, err := m.seats.Reserve(ctx, p.SeatID, p.HolderID, p.HolderCategory, now); err != nil {
		return nil, err
	}

	booking := &entity.Booking{
		Base:       entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingRef: utils.GenerateBookingRef(now),
		HolderID:   p.HolderID,
		SeatID:     p.SeatID,
		RunID:      p.RunID,
		TravelDate: p.TravelDate,
		Price:      p.Price,
		Discount:   p.Discount,
		FinalPrice: p.Price.Sub(p.Discount),
		Status:     entity.BookingStatusPending,
	}
	if m.holdDuration > 0 {
		expires := now.Add(m.holdDuration)
		booking.HoldExpiresAt = &expires
	}

	if err := m.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	if err := m.record(ctx, booking, outbox.BookingCreated); err != nil {
		return nil, err
	}

	m.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_ref", booking.BookingRef),
		zap.String("seat_id", booking.SeatID.String()),
		zap.String("holder_id", booking.HolderID.String()),
	)
	return booking, nil
}

func (m *BookingStateMachine) Confirm(ctx context.Context, b *entity.Booking) error {
	if b.Status != entity.BookingStatusPending {
		return m.illegal(b, "confirm")
	}

	now := m.now()
	b.Status = entity.BookingStatusConfirmed
	b.ConfirmedAt = &now
	b.UpdatedAt = now
	if err := m.bookings.Update(ctx, b); err != nil {
		return err
	}

	m.log.Info("Booking confirmed", zap.String("booking_id", b.ID.String()))
	return m.record(ctx, b, outbox.BookingConfirmed)
}

// Cancel frees the seat in the same unit of work. Settling the booking's
// payment is the coordinator's job.
func (m *BookingStateMachine) Cancel(ctx context.Context, b *entity.Booking, reason, eventType string) error {
	if !b.Status.HoldsSeat() {
		return m.illegal(b, "cancel")
	}

	now := m.now()
	b.Status = entity.BookingStatusCancelled
	b.CancellationReason = &reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	if err := m.bookings.Update(ctx, b); err != nil {
		return err
	}
	if err := m.seats.Release(ctx, b.SeatID); err != nil {
		return err
	}

	m.log.Info("Booking cancelled",
		zap.String("booking_id", b.ID.String()),
		zap.String("reason", reason),
	)
	return m.record(ctx, b, eventType)
}

// Complete is legal once the booking is confirmed and its travel date has passed.
func (m *BookingStateMachine) Complete(ctx context.Context, b *entity.Booking) error {
	if b.Status != entity.BookingStatusConfirmed {
		return m.illegal(b, "complete")
	}

	now := m.now()
	if now.Before(b.TravelDate) {
		return apperr.Validation("booking", b.ID.String(), "travel date has not passed")
	}

	b.Status = entity.BookingStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	if err := m.bookings.Update(ctx, b); err != nil {
		return err
	}
	if err := m.seats.Release(ctx, b.SeatID); err != nil {
		return err
	}

	m.log.Info("Booking completed", zap.String("booking_id", b.ID.String()))
	return m.record(ctx, b, outbox.BookingCompleted)
}

func (m *BookingStateMachine) illegal(b *entity.Booking, op string) error {
	if b.Status.IsTerminal() {
		return apperr.AlreadyTerminal("booking", b.ID.String(), string(b.Status))
	}
	return apperr.Conflict("booking", b.ID.String(), "cannot "+op+" from status "+string(b.Status))
}

func (m *BookingStateMachine) record(ctx context.Context, b *entity.Booking, eventType string) error {
	return m.events.Record(ctx, outbox.AggregateBooking, b.ID, eventType, map[string]any{
		"booking_ref": b.BookingRef,
		"holder_id":   b.HolderID,
		"seat_id":     b.SeatID,
		"run_id":      b.RunID,
		"status":      b.Status,
		"final_price": b.FinalPrice,
		"reason":      b.CancellationReason,
	})
}

// calendarDay drops the clock and zone so dates compare as written.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
