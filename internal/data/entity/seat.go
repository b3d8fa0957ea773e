package entity

import (
	"time"

	"github.com/google/uuid"
)

type SeatCategory string

const (
	SeatCategoryGeneral SeatCategory = "general"
	SeatCategoryWomen   SeatCategory = "women"
)

// Holder categories accepted for restricted seats.
const (
	HolderCategoryFemale = "female"
)

// Seat belongs to one vehicle run. Category is fixed at creation.
type Seat struct {
	Base
	RunID      uuid.UUID    `db:"run_id"`
	SeatNumber int          `db:"seat_number"`
	Category   SeatCategory `db:"category"`
	IsReserved bool         `db:"is_reserved"`
	ReservedBy *uuid.UUID   `db:"reserved_by"`
	ReservedAt *time.Time   `db:"reserved_at"`
}

// Admits reports whether a holder with the given category may take the seat.
func (s *Seat) Admits(holderCategory string) bool {
	switch s.Category {
	case SeatCategoryWomen:
		return holderCategory == HolderCategoryFemale
	default:
		return true
	}
}

// Occupancy summarises one run.
type Occupancy struct {
	RunID     uuid.UUID `json:"run_id"`
	Total     int       `json:"total"`
	Reserved  int       `json:"reserved"`
	Available int       `json:"available"`
}
