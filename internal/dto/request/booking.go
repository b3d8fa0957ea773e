package request

type CreateBookingRequest struct {
	SeatID     string `json:"seat_id" validate:"required,uuid"`
	RunID      string `json:"run_id" validate:"required,uuid"`
	TravelDate string `json:"travel_date" validate:"required,datetime=2006-01-02"`
	Price      string `json:"price" validate:"required,money"`
	Discount   string `json:"discount" validate:"omitempty,money_nonneg"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// BookingListRequest is built from query parameters.
type BookingListRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
}
