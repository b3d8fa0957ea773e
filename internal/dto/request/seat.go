package request

import "time"

type ProvisionSeatsRequest struct {
	TotalSeats int      `json:"total_seats" validate:"required,min=1,max=100"`
	WomenRatio *float64 `json:"women_ratio" validate:"omitempty,gte=0,lte=1"`
}

type RecordPositionRequest struct {
	Latitude   float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64    `json:"longitude" validate:"gte=-180,lte=180"`
	Speed      float64    `json:"speed" validate:"gte=0,lte=200"`
	Heading    float64    `json:"heading" validate:"gte=0,lt=360"`
	RecordedAt *time.Time `json:"recorded_at"`
}
