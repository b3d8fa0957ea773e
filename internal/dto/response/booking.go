package response

import (
	"time"

	"smart-bus/internal/data/entity"
)

type BookingResponse struct {
	ID                 string               `json:"id"`
	BookingRef         string               `json:"booking_ref"`
	HolderID           string               `json:"holder_id"`
	SeatID             string               `json:"seat_id"`
	RunID              string               `json:"run_id"`
	TravelDate         string               `json:"travel_date"`
	Price              string               `json:"price"`
	Discount           string               `json:"discount"`
	FinalPrice         string               `json:"final_price"`
	Status             entity.BookingStatus `json:"status"`
	CancellationReason *string              `json:"cancellation_reason,omitempty"`
	HoldExpiresAt      *time.Time           `json:"hold_expires_at,omitempty"`
	ConfirmedAt        *time.Time           `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time           `json:"completed_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

// BookingDetailResponse adds the booking's current payment, if any.
type BookingDetailResponse struct {
	BookingResponse
	SeatNumber int              `json:"seat_number"`
	Payment    *PaymentResponse `json:"payment,omitempty"`
}

func NewBookingResponse(b *entity.Booking) *BookingResponse {
	return &BookingResponse{
		ID:                 b.ID.String(),
		BookingRef:         b.BookingRef,
		HolderID:           b.HolderID.String(),
		SeatID:             b.SeatID.String(),
		RunID:              b.RunID.String(),
		TravelDate:         b.TravelDate.Format("2006-01-02"),
		Price:              b.Price.StringFixed(2),
		Discount:           b.Discount.StringFixed(2),
		FinalPrice:         b.FinalPrice.StringFixed(2),
		Status:             b.Status,
		CancellationReason: b.CancellationReason,
		HoldExpiresAt:      b.HoldExpiresAt,
		ConfirmedAt:        b.ConfirmedAt,
		CancelledAt:        b.CancelledAt,
		CompletedAt:        b.CompletedAt,
		CreatedAt:          b.CreatedAt,
	}
}
