package usecase

import (
	"context"
	"time"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatLedger owns seat occupancy. Callers serialise on the seat lock;
// the conditional update in the store still guarantees a single winner.
type SeatLedger struct {
	seats repository.SeatRepository
	log   *zap.Logger
}

func NewSeatLedger(seats repository.SeatRepository, log *zap.Logger) *SeatLedger {
	return &SeatLedger{
		seats: seats,
		log:   log.With(zap.String("ledger", "seat")),
	}
}

func (l *SeatLedger) Reserve(ctx context.Context, seatID, holderID uuid.UUID, holderCategory string, at time.Time) (*entity.Seat, error) {
	seat, err := l.seats.FindByID(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if seat == nil {
		return nil, apperr.NotFound("seat", seatID.String())
	}

	if seat.IsReserved {
		return nil, apperr.Conflict("seat", seatID.String(), "is already occupied")
	}
	if !seat.Admits(holderCategory) {
		l.log.Warn("Seat restriction violated",
			zap.String("seat_id", seatID.String()),
			zap.String("holder_id", holderID.String()),
			zap.String("category", string(seat.Category)),
		)
		return nil, apperr.RestrictionViolation(seatID.String(), "is reserved for "+string(seat.Category)+" passengers")
	}

	ok, err := l.seats.Reserve(ctx, seatID, holderID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("seat", seatID.String(), "is already occupied")
	}

	seat.IsReserved = true
	seat.ReservedBy = &holderID
	seat.ReservedAt = &at

	l.log.Info("Seat reserved",
		zap.String("seat_id", seatID.String()),
		zap.String("holder_id", holderID.String()),
	)
	return seat, nil
}

// Release frees the seat. Releasing a free seat is a no-op.
func (l *SeatLedger) Release(ctx context.Context, seatID uuid.UUID) error {
	changed, err := l.seats.Release(ctx, seatID)
	if err != nil {
		return err
	}
	if changed {
		l.log.Info("Seat released", zap.String("seat_id", seatID.String()))
	}
	return nil
}
