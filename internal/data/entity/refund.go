package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund is created once per refunded payment, always for the full amount.
type Refund struct {
	BaseSimple
	RefundRef       string          `db:"refund_ref"`
	PaymentID       uuid.UUID       `db:"payment_id"`
	Amount          decimal.Decimal `db:"amount"`
	Reason          string          `db:"reason"`
	Status          RefundStatus    `db:"status"`
	GatewayRefundID *string         `db:"gateway_refund_id"`
	CompletedAt     *time.Time      `db:"completed_at"`
}
