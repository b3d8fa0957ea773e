package response

import (
	"time"

	"smart-bus/internal/data/entity"
)

type SeatResponse struct {
	ID         string              `json:"id"`
	SeatNumber int                 `json:"seat_number"`
	Category   entity.SeatCategory `json:"category"`
	IsReserved bool                `json:"is_reserved"`
}

type SeatMapResponse struct {
	RunID     string            `json:"run_id"`
	Occupancy *entity.Occupancy `json:"occupancy"`
	Seats     []*SeatResponse   `json:"seats"`
}

type PositionResponse struct {
	RunID      string    `json:"run_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	RecordedAt time.Time `json:"recorded_at"`
}

func NewSeatResponse(s *entity.Seat) *SeatResponse {
	return &SeatResponse{
		ID:         s.ID.String(),
		SeatNumber: s.SeatNumber,
		Category:   s.Category,
		IsReserved: s.IsReserved,
	}
}

func NewPositionResponse(p *entity.Position) *PositionResponse {
	return &PositionResponse{
		RunID:      p.RunID.String(),
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Speed:      p.Speed,
		Heading:    p.Heading,
		RecordedAt: p.RecordedAt,
	}
}
