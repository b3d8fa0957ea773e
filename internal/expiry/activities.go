package expiry

import (
	"context"

	"smart-bus/internal/apperr"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

const errInvalidBooking = "InvalidBookingID"

// Expirer is satisfied by *usecase.Coordinator.
type Expirer interface {
	ExpireBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type Activities struct {
	expirer Expirer
	log     *zap.Logger
}

func NewActivities(expirer Expirer, log *zap.Logger) *Activities {
	return &Activities{
		expirer: expirer,
		log:     log.With(zap.String("component", "expiry")),
	}
}

// ExpireHold reports whether the booking was actually expired. A booking
// that has disappeared counts as nothing to do.
func (a *Activities) ExpireHold(ctx context.Context, bookingID string) (bool, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return false, temporal.NewNonRetryableApplicationError("invalid booking id "+bookingID, errInvalidBooking, err)
	}

	expired, err := a.expirer.ExpireBooking(ctx, id)
	if apperr.IsNotFound(err) {
		a.log.Warn("Hold expiry for unknown booking", zap.String("booking_id", bookingID))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return expired, nil
}
