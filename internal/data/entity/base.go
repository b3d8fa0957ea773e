package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base is embedded by rows that are updated in place. Nothing in this system
// is soft-deleted; lifecycle is expressed through status columns.
type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BaseSimple is embedded by append-only rows.
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
