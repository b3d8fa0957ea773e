package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusNew        OutboxStatus = "new"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusPublished  OutboxStatus = "published"
)

// OutboxEvent is written in the same transaction as the state change it describes.
type OutboxEvent struct {
	Base
	AggregateType string          `db:"aggregate_type"`
	AggregateID   uuid.UUID       `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Status        OutboxStatus    `db:"status"`
	Attempts      int             `db:"attempts"`
}
