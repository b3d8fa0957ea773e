package entity

import (
	"time"

	"github.com/google/uuid"
)

// Position is one GPS fix for a vehicle run.
type Position struct {
	BaseSimple
	RunID      uuid.UUID `db:"run_id" json:"run_id"`
	Latitude   float64   `db:"latitude" json:"latitude"`
	Longitude  float64   `db:"longitude" json:"longitude"`
	Speed      float64   `db:"speed" json:"speed"`
	Heading    float64   `db:"heading" json:"heading"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
