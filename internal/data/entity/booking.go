package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// HoldsSeat reports whether a booking in this status keeps its seat occupied.
func (s BookingStatus) HoldsSeat() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	Base
	BookingRef         string          `db:"booking_ref"`
	HolderID           uuid.UUID       `db:"holder_id"`
	SeatID             uuid.UUID       `db:"seat_id"`
	RunID              uuid.UUID       `db:"run_id"`
	TravelDate         time.Time       `db:"travel_date"`
	Price              decimal.Decimal `db:"price"`
	Discount           decimal.Decimal `db:"discount"`
	FinalPrice         decimal.Decimal `db:"final_price"`
	Status             BookingStatus   `db:"status"`
	CancellationReason *string         `db:"cancellation_reason"`
	HoldExpiresAt      *time.Time      `db:"hold_expires_at"`
	ConfirmedAt        *time.Time      `db:"confirmed_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	CompletedAt        *time.Time      `db:"completed_at"`
}

// BookingFilter narrows holder booking listings.
type BookingFilter struct {
	HolderID uuid.UUID
	Status   BookingStatus
	Limit    int
	Offset   int
}
