// Package expiry releases seat holds whose payment never arrived. Each
// pending booking gets a timer; the timer is dropped when the booking is
// confirmed or cancelled, and otherwise ends in Coordinator.ExpireBooking.
package expiry

import (
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	WorkflowName  = "SeatHoldExpiryWorkflow"
	ActivityName  = "ExpireHold"
	SignalSettled = "hold-settled"
)

type HoldInput struct {
	BookingID string    `json:"booking_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type HoldResult struct {
	Settled bool `json:"settled"`
	Expired bool `json:"expired"`
}

type SettledSignal struct {
	BookingID string `json:"booking_id"`
}

func WorkflowID(bookingID uuid.UUID) string {
	return "hold-" + bookingID.String()
}

// SeatHoldExpiryWorkflow waits for the hold deadline or the settled
// signal, whichever comes first.
func SeatHoldExpiryWorkflow(ctx workflow.Context, in HoldInput) (*HoldResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Seat hold started", "bookingId", in.BookingID, "expiresAt", in.ExpiresAt)

	wait := in.ExpiresAt.Sub(workflow.Now(ctx))
	if wait < 0 {
		wait = 0
	}

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, wait)
	settledCh := workflow.GetSignalChannel(ctx, SignalSettled)

	var settled bool
	selector := workflow.NewSelector(ctx)
	selector.AddFuture(timer, func(workflow.Future) {})
	selector.AddReceive(settledCh, func(c workflow.ReceiveChannel, more bool) {
		var sig SettledSignal
		c.Receive(ctx, &sig)
		settled = true
		cancelTimer()
	})
	selector.Select(ctx)

	if settled {
		logger.Info("Seat hold settled before deadline", "bookingId", in.BookingID)
		return &HoldResult{Settled: true}, nil
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{errInvalidBooking},
		},
	})

	var expired bool
	if err := workflow.ExecuteActivity(ctx, ActivityName, in.BookingID).Get(ctx, &expired); err != nil {
		logger.Error("Failed to expire seat hold", "bookingId", in.BookingID, "error", err)
		return nil, err
	}

	logger.Info("Seat hold deadline reached", "bookingId", in.BookingID, "expired", expired)
	return &HoldResult{Expired: expired}, nil
}
